package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/repository"
)

// ExamStore is the slice of the exam repository the service drives.
type ExamStore interface {
	GetOngoing(ctx context.Context, studentID string) (*model.Exam, error)
	GetByIDForStudent(ctx context.Context, examID, studentID string) (*model.Exam, error)
	GetByID(ctx context.Context, examID string) (*model.Exam, error)
	CreateWithSnapshot(ctx context.Context, exam *model.Exam, questionIDs []string) error
	QuestionIDs(ctx context.Context, examID string) ([]string, error)
	Records(ctx context.Context, examID string) ([]model.ExamRecord, error)
	ApplyAnswer(ctx context.Context, examID, studentID, questionID string, answer json.RawMessage, isCorrect bool, now time.Time) (*model.Exam, error)
	ExpireIfInProgress(ctx context.Context, examID string) (bool, error)
	CompleteIfInProgress(ctx context.Context, examID string, submitTime time.Time) (bool, error)
	CompleteAllInProgress(ctx context.Context, submitTime time.Time) (int64, error)
	History(ctx context.Context, studentID string) ([]model.Exam, error)
}

// AnswerChecker scores a submitted answer against the question bank.
type AnswerChecker interface {
	CheckAnswer(id string, submitted json.RawMessage) (bool, string, error)
	Get(id string) (*model.Question, error)
}

// StudentDirectory resolves student identities for the admin exam view.
type StudentDirectory interface {
	GetByID(ctx context.Context, studentID string) (*model.User, error)
}

// ExamService runs the exam lifecycle: draw, answer, complete, expire.
// Starts are serialized per student so a double-click can never create two
// in-progress exams.
type ExamService struct {
	exams       ExamStore
	questions   AnswerChecker
	eligibility *EligibilityService
	students    StudentDirectory
	settings    *SettingsService
	now         func() time.Time
	log         zerolog.Logger

	mu     sync.Mutex
	starts map[string]*sync.Mutex
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, questions AnswerChecker, eligibility *EligibilityService, students StudentDirectory, settings *SettingsService, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:       exams,
		questions:   questions,
		eligibility: eligibility,
		students:    students,
		settings:    settings,
		now:         time.Now,
		log:         log.With().Str("component", "exam_service").Logger(),
		starts:      make(map[string]*sync.Mutex),
	}
}

func (s *ExamService) startLock(studentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.starts[studentID]
	if !ok {
		m = &sync.Mutex{}
		s.starts[studentID] = m
	}
	return m
}

// Start opens a new exam for the student: checks the feature flag, rejects a
// second concurrent exam, draws a random snapshot from the eligibility pool
// and fixes the time box. The draw is re-validated against the configured
// count because settings can change between the eligibility check and here.
func (s *ExamService) Start(ctx context.Context, studentID string) (*model.Exam, error) {
	cfg := s.settings.Current()
	if !cfg.EnableExam {
		return nil, ErrFeatureDisabled
	}

	lock := s.startLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	ongoing, err := s.exams.GetOngoing(ctx, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if ongoing != nil {
		if s.now().After(ongoing.EndTime) {
			if _, err := s.exams.ExpireIfInProgress(ctx, ongoing.ExamID); err != nil {
				return nil, err
			}
		} else {
			return nil, ErrExamOngoing
		}
	}

	pool, err := s.eligibility.ExamPool(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(pool) < cfg.PracticeThreshold || len(pool) < cfg.ExamQuestionCount {
		return nil, ErrInsufficientPool
	}

	drawn := make([]string, len(pool))
	copy(drawn, pool)
	rand.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})
	drawn = drawn[:cfg.ExamQuestionCount]

	now := s.now()
	exam := &model.Exam{
		ExamID:        fmt.Sprintf("%s_%s", studentID, now.Format("20060102150405")),
		StudentID:     studentID,
		StartTime:     now,
		EndTime:       now.Add(time.Duration(cfg.ExamDurationMinutes) * time.Minute),
		QuestionCount: cfg.ExamQuestionCount,
		Status:        model.ExamStatusInProgress,
	}
	if err := s.exams.CreateWithSnapshot(ctx, exam, drawn); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("student_id", studentID).
		Str("exam_id", exam.ExamID).
		Int("question_count", exam.QuestionCount).
		Msg("Exam started")
	return exam, nil
}

// Ongoing reports whether the student has a running exam. An overdue exam is
// expired on the spot and reported as absent. Without a running exam the
// response carries the eligibility progress instead.
func (s *ExamService) Ongoing(ctx context.Context, studentID string) (*model.OngoingExamStatus, error) {
	exam, err := s.exams.GetOngoing(ctx, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if exam != nil {
		if s.now().After(exam.EndTime) {
			if _, err := s.exams.ExpireIfInProgress(ctx, exam.ExamID); err != nil {
				return nil, err
			}
		} else {
			return &model.OngoingExamStatus{HasOngoingExam: true, ExamID: exam.ExamID}, nil
		}
	}

	_, poolSize, required, err := s.eligibility.IsEligibleForExam(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &model.OngoingExamStatus{
		HasOngoingExam: false,
		CorrectCount:   poolSize,
		RequiredCount:  required,
	}, nil
}

// HasActiveExam reports whether the student has a running, non-overdue exam.
// Overdue exams are expired on the spot, same as Ongoing.
func (s *ExamService) HasActiveExam(ctx context.Context, studentID string) (bool, error) {
	exam, err := s.exams.GetOngoing(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if s.now().After(exam.EndTime) {
		if _, err := s.exams.ExpireIfInProgress(ctx, exam.ExamID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Questions returns the snapshot of a running exam to its owner.
func (s *ExamService) Questions(ctx context.Context, examID, studentID string) (*model.ExamQuestions, error) {
	exam, err := s.ownedExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusInProgress {
		return nil, ErrExamExpired
	}
	if s.now().After(exam.EndTime) {
		if _, err := s.exams.ExpireIfInProgress(ctx, exam.ExamID); err != nil {
			return nil, err
		}
		return nil, ErrExamExpired
	}

	ids, err := s.exams.QuestionIDs(ctx, examID)
	if err != nil {
		return nil, err
	}
	return &model.ExamQuestions{
		Questions:       ids,
		CurrentProgress: exam.CurrentProgress,
		EndTime:         exam.EndTime,
	}, nil
}

// SubmitAnswer scores one exam answer. Overdue exams are expired before any
// scoring, duplicates are rejected, and the exam completes automatically when
// the last snapshot question lands.
func (s *ExamService) SubmitAnswer(ctx context.Context, examID, studentID, questionID string, answer json.RawMessage) (*model.SubmitResult, error) {
	exam, err := s.ownedExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusInProgress {
		return nil, ErrExamExpired
	}
	now := s.now()
	if now.After(exam.EndTime) {
		if _, err := s.exams.ExpireIfInProgress(ctx, exam.ExamID); err != nil {
			return nil, err
		}
		return nil, ErrExamExpired
	}

	isCorrect, explanation, err := s.questions.CheckAnswer(questionID, answer)
	if err != nil {
		return nil, err
	}

	updated, err := s.exams.ApplyAnswer(ctx, examID, studentID, questionID, answer, isCorrect, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyAnswered):
			return nil, ErrAlreadyAnswered
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		}
		return nil, err
	}

	if updated.Status == model.ExamStatusCompleted {
		s.log.Info().
			Str("exam_id", examID).
			Float64("score", updated.Score()).
			Msg("Exam completed")
	}
	return &model.SubmitResult{
		IsCorrect:       isCorrect,
		Explanation:     explanation,
		CurrentProgress: updated.CurrentProgress,
		ExamStatus:      updated.Status,
	}, nil
}

// ForceSubmit completes one in-progress exam with the current partial score
// (admin action). Terminal exams are left untouched.
func (s *ExamService) ForceSubmit(ctx context.Context, examID string) error {
	done, err := s.exams.CompleteIfInProgress(ctx, examID, s.now())
	if err != nil {
		return err
	}
	if !done {
		return ErrNotFound
	}
	s.log.Info().Str("exam_id", examID).Msg("Exam force-submitted")
	return nil
}

// ForceSubmitAll completes every in-progress exam (admin action).
func (s *ExamService) ForceSubmitAll(ctx context.Context) (int64, error) {
	n, err := s.exams.CompleteAllInProgress(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("All in-progress exams force-submitted")
	}
	return n, nil
}

// Detail builds the post-exam review for the owning student. Running exams
// are not reviewable.
func (s *ExamService) Detail(ctx context.Context, examID, studentID string) (*model.ExamDetail, error) {
	exam, err := s.ownedExam(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if !exam.Status.Terminal() {
		return nil, ErrExamOngoing
	}
	return s.buildDetail(ctx, exam)
}

// AdminDetail builds the review of any exam, with the student's identity.
func (s *ExamService) AdminDetail(ctx context.Context, examID string) (*model.AdminExamDetail, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	detail, err := s.buildDetail(ctx, exam)
	if err != nil {
		return nil, err
	}

	name := exam.StudentID
	if user, err := s.students.GetByID(ctx, exam.StudentID); err == nil {
		name = user.Name
	}
	return &model.AdminExamDetail{
		StudentID:   exam.StudentID,
		StudentName: name,
		ExamDetail:  *detail,
	}, nil
}

// History lists the student's finished exams, newest first.
func (s *ExamService) History(ctx context.Context, studentID string) ([]model.ExamSummary, error) {
	exams, err := s.exams.History(ctx, studentID)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.ExamSummary, 0, len(exams))
	for i := range exams {
		e := &exams[i]
		summaries = append(summaries, model.ExamSummary{
			ExamID:        e.ExamID,
			StartTime:     e.StartTime,
			EndTime:       e.EndTime,
			SubmitTime:    e.SubmitTime,
			Status:        e.Status,
			QuestionCount: e.QuestionCount,
			CorrectCount:  e.CorrectCount,
			Score:         e.Score(),
		})
	}
	return summaries, nil
}

func (s *ExamService) ownedExam(ctx context.Context, examID, studentID string) (*model.Exam, error) {
	exam, err := s.exams.GetByIDForStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) buildDetail(ctx context.Context, exam *model.Exam) (*model.ExamDetail, error) {
	records, err := s.exams.Records(ctx, exam.ExamID)
	if err != nil {
		return nil, err
	}

	questions := make([]model.ExamQuestionDetail, 0, len(records))
	for _, rec := range records {
		q, err := s.questions.Get(rec.QuestionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// The question was deleted after the exam; skip the row.
				continue
			}
			return nil, err
		}
		questions = append(questions, model.ExamQuestionDetail{
			Question:      *q,
			StudentAnswer: rec.StudentAnswer,
			IsCorrect:     rec.IsCorrect,
		})
	}

	return &model.ExamDetail{
		ExamID:          exam.ExamID,
		StartTime:       exam.StartTime,
		EndTime:         exam.EndTime,
		SubmitTime:      exam.SubmitTime,
		Status:          exam.Status,
		CurrentProgress: exam.CurrentProgress,
		QuestionCount:   exam.QuestionCount,
		CorrectCount:    exam.CorrectCount,
		Score:           exam.Score(),
		Questions:       questions,
	}, nil
}
