package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// ExamSettings is one immutable snapshot of the hot-reloadable business
// configuration. Callers fetch a snapshot per use and never mutate it.
type ExamSettings struct {
	CycleDays           int
	CorrectThreshold    int
	ExamDurationMinutes int
	ExamQuestionCount   int
	QuestionRangeDays   int
	PracticeThreshold   int
	PassScore           float64
	EnableExam          bool
	EnableRegistration  bool
}

// DefaultExamSettings are applied for keys missing from storage.
func DefaultExamSettings() ExamSettings {
	return ExamSettings{
		CycleDays:           3,
		CorrectThreshold:    3,
		ExamDurationMinutes: 30,
		ExamQuestionCount:   10,
		QuestionRangeDays:   7,
		PracticeThreshold:   10,
		PassScore:           60,
		EnableExam:          true,
		EnableRegistration:  true,
	}
}

// Validate rejects inconsistent settings. A practice threshold below the exam
// question count would let an eligible student start an exam that cannot be
// filled, so it is refused here, at configuration time.
func (s *ExamSettings) Validate() error {
	if s.CycleDays <= 0 || s.CorrectThreshold <= 0 || s.ExamDurationMinutes <= 0 ||
		s.ExamQuestionCount <= 0 || s.QuestionRangeDays <= 0 || s.PracticeThreshold <= 0 {
		return fmt.Errorf("%w: all numeric settings must be positive", ErrMisconfigured)
	}
	if s.PassScore < 0 || s.PassScore > 100 {
		return fmt.Errorf("%w: pass_score must be within 0..100", ErrMisconfigured)
	}
	if s.PracticeThreshold < s.ExamQuestionCount {
		return ErrMisconfigured
	}
	return nil
}

// SettingStore is the persistence the settings service needs.
type SettingStore interface {
	GetAll(ctx context.Context) ([]model.AppSetting, error)
	Upsert(ctx context.Context, key, value string) error
}

// SettingsService serves live business configuration. The snapshot behind an
// atomic pointer is swapped wholesale on every reload, so readers never see a
// half-updated configuration and never block each other.
type SettingsService struct {
	store   SettingStore
	log     zerolog.Logger
	current atomic.Pointer[ExamSettings]
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(store SettingStore, log zerolog.Logger) *SettingsService {
	s := &SettingsService{
		store: store,
		log:   log.With().Str("component", "settings_service").Logger(),
	}
	defaults := DefaultExamSettings()
	s.current.Store(&defaults)
	return s
}

// Current returns the latest valid snapshot. Re-read at every point of use;
// never cache it across requests.
func (s *SettingsService) Current() ExamSettings {
	return *s.current.Load()
}

// Load reads all settings rows, parses and validates them, and swaps the
// snapshot. An invalid stored configuration keeps the previous snapshot.
func (s *SettingsService) Load(ctx context.Context) error {
	rows, err := s.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	next := DefaultExamSettings()
	for _, row := range rows {
		if err := applySetting(&next, row.Key, row.Value); err != nil {
			return fmt.Errorf("setting %s: %w", row.Key, err)
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}

	s.current.Store(&next)
	return nil
}

// StartReloader re-reads settings on a fixed interval until ctx is done, so
// edits made directly in the database are picked up without a restart.
func (s *SettingsService) StartReloader(ctx context.Context, interval time.Duration) {
	s.log.Info().Dur("interval", interval).Msg("Settings reloader started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Settings reloader stopped")
			return
		case <-ticker.C:
			if err := s.Load(ctx); err != nil {
				s.log.Error().Err(err).Msg("Settings reload failed, keeping previous snapshot")
			}
		}
	}
}

// Update validates the merged result of the requested changes before writing
// anything, so a misconfiguration is rejected atomically.
func (s *SettingsService) Update(ctx context.Context, changes map[string]string) error {
	next := s.Current()
	for key, value := range changes {
		if err := applySetting(&next, key, value); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}

	for key, value := range changes {
		if err := s.store.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("store setting %s: %w", key, err)
		}
	}

	s.current.Store(&next)
	return nil
}

// All returns the raw stored settings rows (admin view).
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func applySetting(dst *ExamSettings, key, value string) error {
	switch key {
	case model.SettingCycleDays:
		return parseIntSetting(value, &dst.CycleDays)
	case model.SettingCorrectThreshold:
		return parseIntSetting(value, &dst.CorrectThreshold)
	case model.SettingExamDuration:
		return parseIntSetting(value, &dst.ExamDurationMinutes)
	case model.SettingExamQuestionCount:
		return parseIntSetting(value, &dst.ExamQuestionCount)
	case model.SettingQuestionRangeDays:
		return parseIntSetting(value, &dst.QuestionRangeDays)
	case model.SettingPracticeThreshold:
		return parseIntSetting(value, &dst.PracticeThreshold)
	case model.SettingPassScore:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid number %q", ErrMisconfigured, value)
		}
		dst.PassScore = f
	case model.SettingEnableExam:
		return parseBoolSetting(value, &dst.EnableExam)
	case model.SettingEnableRegistration:
		return parseBoolSetting(value, &dst.EnableRegistration)
	default:
		return fmt.Errorf("%w: unknown setting %q", ErrMisconfigured, key)
	}
	return nil
}

func parseIntSetting(value string, dst *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: invalid number %q", ErrMisconfigured, value)
	}
	*dst = n
	return nil
}

func parseBoolSetting(value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: invalid boolean %q", ErrMisconfigured, value)
	}
	*dst = b
	return nil
}
