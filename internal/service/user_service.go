package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// UserStore is the slice of the user repository the service drives.
type UserStore interface {
	GetByID(ctx context.Context, studentID string) (*model.User, error)
	UpsertBinding(ctx context.Context, studentID, name, ip string) error
	BoundToIP(ctx context.Context, ip string, dayStart time.Time) ([]string, error)
	UnbindIP(ctx context.Context, studentID string) (bool, error)
	SetPermission(ctx context.Context, studentID, column string, enable bool) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, studentID string) (bool, error)
}

// StatsRecordStore is the practice-history slice the stats endpoints read.
type StatsRecordStore interface {
	Totals(ctx context.Context, studentID string) (total, correct int, err error)
}

// ExamStatsStore is the exam-history slice the stats endpoints read.
type ExamStatsStore interface {
	CompletedCount(ctx context.Context, studentID string) (int, error)
	LastCompleted(ctx context.Context, studentID string) (*model.Exam, error)
	PassedSince(ctx context.Context, studentID string, since time.Time, passScore float64) (bool, error)
}

// CodeStore hands out and looks up daily reward codes.
type CodeStore interface {
	GetSince(ctx context.Context, studentID string, since time.Time) (*model.CodeRecord, error)
	Issue(ctx context.Context, studentID string, now time.Time) (string, error)
}

// UserService implements student identity, the per-day IP binding policy and
// the student/admin stats views.
type UserService struct {
	users    UserStore
	records  StatsRecordStore
	exams    ExamStatsStore
	codes    CodeStore
	settings *SettingsService
	now      func() time.Time
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, records StatsRecordStore, exams ExamStatsStore, codes CodeStore, settings *SettingsService, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		records:  records,
		exams:    exams,
		codes:    codes,
		settings: settings,
		now:      time.Now,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

func (s *UserService) dayStart() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// boundToday reports whether the user's binding was made on the current
// calendar day. Bindings from earlier days are stale and can be replaced.
func (s *UserService) boundToday(u *model.User) bool {
	return u.BoundIP != nil && u.BoundTime != nil && !u.BoundTime.Before(s.dayStart())
}

// Login registers or re-binds a student. An unknown student needs the
// registration flag open and a display name; a known student bound to a
// different IP today is rejected, everyone else is (re)bound to the caller's
// IP for the rest of the day.
func (s *UserService) Login(ctx context.Context, studentID, name, ip string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !s.settings.Current().EnableRegistration {
			return nil, ErrRegistrationClosed
		}
		if name == "" {
			return nil, ErrNameRequired
		}
		if err := s.users.UpsertBinding(ctx, studentID, name, ip); err != nil {
			return nil, err
		}
		s.log.Info().Str("student_id", studentID).Str("ip", ip).Msg("Student registered")
		return s.users.GetByID(ctx, studentID)
	}

	if s.boundToday(user) && *user.BoundIP != ip {
		return nil, ErrIPMismatch
	}
	if name == "" {
		name = user.Name
	}
	if err := s.users.UpsertBinding(ctx, studentID, name, ip); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, studentID)
}

// VerifyIP enforces the binding on every authenticated request: a student
// bound today must come from the bound IP; a stale binding is silently
// refreshed to the caller's IP.
func (s *UserService) VerifyIP(ctx context.Context, studentID, ip string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.boundToday(user) {
		if *user.BoundIP != ip {
			return nil, ErrIPMismatch
		}
		return user, nil
	}
	if err := s.users.UpsertBinding(ctx, studentID, user.Name, ip); err != nil {
		return nil, err
	}
	user.BoundIP = &ip
	now := s.now()
	user.BoundTime = &now
	return user, nil
}

// StudentsBoundTo lists the students bound to an IP today. The exam guard
// uses this to lock out every sibling account on a busy machine.
func (s *UserService) StudentsBoundTo(ctx context.Context, ip string) ([]string, error) {
	return s.users.BoundToIP(ctx, ip, s.dayStart())
}

// Stats builds the student's own dashboard: attempt totals, accuracy and
// today's reward code. The code is issued lazily on first read after a passed
// exam, never twice in one day.
func (s *UserService) Stats(ctx context.Context, studentID string) (*model.UserStats, error) {
	total, correct, err := s.records.Totals(ctx, studentID)
	if err != nil {
		return nil, err
	}
	stats := &model.UserStats{TotalQuestions: total}
	if total > 0 {
		stats.CorrectRate = math.Round(float64(correct)/float64(total)*1000) / 10
	}

	dayStart := s.dayStart()
	if rec, err := s.codes.GetSince(ctx, studentID, dayStart); err == nil {
		stats.TodayCode = &rec.Code
		return stats, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	passed, err := s.exams.PassedSince(ctx, studentID, dayStart, s.settings.Current().PassScore)
	if err != nil {
		return nil, err
	}
	if !passed {
		return stats, nil
	}

	code, err := s.codes.Issue(ctx, studentID, s.now())
	if err != nil {
		return nil, err
	}
	if code == "" {
		s.log.Warn().Str("student_id", studentID).Msg("Reward code pool is empty")
		return stats, nil
	}
	stats.TodayCode = &code
	s.log.Info().Str("student_id", studentID).Msg("Reward code issued")
	return stats, nil
}

// Progress builds the admin roster with per-student practice and exam stats.
func (s *UserService) Progress(ctx context.Context) ([]model.UserProgress, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := s.dayStart()
	progress := make([]model.UserProgress, 0, len(users))
	for i := range users {
		u := &users[i]
		row := model.UserProgress{
			StudentID:  u.StudentID,
			Name:       u.Name,
			BoundIP:    u.BoundIP,
			BoundTime:  u.BoundTime,
			EnableAI:   u.EnableAI,
			EnableExam: u.EnableExam,
		}

		total, correct, err := s.records.Totals(ctx, u.StudentID)
		if err != nil {
			return nil, err
		}
		row.TotalQuestions = total
		row.CorrectQuestions = correct
		if total > 0 {
			row.Accuracy = math.Round(float64(correct)/float64(total)*1000) / 10
		}

		if row.ExamCount, err = s.exams.CompletedCount(ctx, u.StudentID); err != nil {
			return nil, err
		}
		if last, err := s.exams.LastCompleted(ctx, u.StudentID); err == nil {
			score := last.Score()
			row.LastExamScore = &score
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if _, err := s.codes.GetSince(ctx, u.StudentID, dayStart); err == nil {
			row.HasCode = true
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		progress = append(progress, row)
	}
	return progress, nil
}

// Get returns one user (admin view).
func (s *UserService) Get(ctx context.Context, studentID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetAIPermission toggles the AI-question flag for a student.
func (s *UserService) SetAIPermission(ctx context.Context, studentID string, enable bool) error {
	return s.setPermission(ctx, studentID, "enable_ai", enable)
}

// SetExamPermission toggles the exam flag for a student.
func (s *UserService) SetExamPermission(ctx context.Context, studentID string, enable bool) error {
	return s.setPermission(ctx, studentID, "enable_exam", enable)
}

func (s *UserService) setPermission(ctx context.Context, studentID, column string, enable bool) error {
	ok, err := s.users.SetPermission(ctx, studentID, column, enable)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info().Str("student_id", studentID).Str("permission", column).Bool("enable", enable).Msg("Permission updated")
	return nil
}

// Unbind clears a student's IP binding (admin action).
func (s *UserService) Unbind(ctx context.Context, studentID string) error {
	ok, err := s.users.UnbindIP(ctx, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info().Str("student_id", studentID).Msg("IP binding cleared")
	return nil
}

// Delete removes a student and all their data (admin action).
func (s *UserService) Delete(ctx context.Context, studentID string) error {
	ok, err := s.users.Delete(ctx, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info().Str("student_id", studentID).Msg("Student deleted")
	return nil
}
