package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PracticeRecordStore is the slice of the record repository the eligibility
// engine reads from.
type PracticeRecordStore interface {
	MasteredQuestions(ctx context.Context, studentID string, since time.Time, threshold int) (map[string]struct{}, error)
	DistinctCorrectSince(ctx context.Context, studentID string, since time.Time) ([]string, error)
}

// EligibilityService derives practice exclusions and exam readiness from the
// student's rolling answer history.
type EligibilityService struct {
	records  PracticeRecordStore
	settings *SettingsService
	now      func() time.Time
	log      zerolog.Logger
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(records PracticeRecordStore, settings *SettingsService, log zerolog.Logger) *EligibilityService {
	return &EligibilityService{
		records:  records,
		settings: settings,
		now:      time.Now,
		log:      log.With().Str("component", "eligibility_service").Logger(),
	}
}

// ExcludedQuestions returns the ids answered correctly at least
// CorrectThreshold times within the last CycleDays. Those questions are
// considered mastered and are skipped by the practice picker.
func (s *EligibilityService) ExcludedQuestions(ctx context.Context, studentID string) (map[string]struct{}, error) {
	cfg := s.settings.Current()
	since := s.now().AddDate(0, 0, -cfg.CycleDays)
	return s.records.MasteredQuestions(ctx, studentID, since, cfg.CorrectThreshold)
}

// ExamPool returns the distinct question ids the student answered correctly
// within QuestionRangeDays. Exams draw only from this pool.
func (s *EligibilityService) ExamPool(ctx context.Context, studentID string) ([]string, error) {
	cfg := s.settings.Current()
	since := s.now().AddDate(0, 0, -cfg.QuestionRangeDays)
	return s.records.DistinctCorrectSince(ctx, studentID, since)
}

// IsEligibleForExam reports whether the student's recent pool reaches the
// practice threshold, together with the current pool size and the bar it
// must clear.
func (s *EligibilityService) IsEligibleForExam(ctx context.Context, studentID string) (bool, int, int, error) {
	cfg := s.settings.Current()
	pool, err := s.ExamPool(ctx, studentID)
	if err != nil {
		return false, 0, cfg.PracticeThreshold, err
	}
	return len(pool) >= cfg.PracticeThreshold, len(pool), cfg.PracticeThreshold, nil
}
