package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// PracticeLog is the write side of the practice history.
type PracticeLog interface {
	Save(ctx context.Context, rec *model.AnswerRecord) error
	QuestionStats(ctx context.Context, studentID, questionID string) (*model.QuestionRecordStats, error)
}

// PracticeResult is returned after a scored practice answer.
type PracticeResult struct {
	IsCorrect   bool                      `json:"is_correct"`
	Explanation string                    `json:"explanation"`
	Answer      json.RawMessage           `json:"answer"`
	Stats       model.QuestionRecordStats `json:"stats"`
}

// PracticeService serves the practice loop: pick a question the student has
// not mastered yet, score the answer, log the attempt.
type PracticeService struct {
	bank        QuestionBank
	checker     AnswerChecker
	eligibility *EligibilityService
	records     PracticeLog
	now         func() time.Time
	log         zerolog.Logger
}

// NewPracticeService creates a new PracticeService.
func NewPracticeService(bank QuestionBank, checker AnswerChecker, eligibility *EligibilityService, records PracticeLog, log zerolog.Logger) *PracticeService {
	return &PracticeService{
		bank:        bank,
		checker:     checker,
		eligibility: eligibility,
		records:     records,
		now:         time.Now,
		log:         log.With().Str("component", "practice_service").Logger(),
	}
}

// NextQuestion draws a random enabled question the student has not mastered
// within the current cycle. AI-generated questions are only served when the
// student's AI flag is on. Returns ErrEmptyBank when nothing is left.
func (s *PracticeService) NextQuestion(ctx context.Context, studentID string, allowAI bool) (*model.QuestionResponse, error) {
	questions, err := s.bank.All()
	if err != nil {
		return nil, err
	}
	excluded, err := s.eligibility.ExcludedQuestions(ctx, studentID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*model.Question, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		if !q.Enabled {
			continue
		}
		if q.IsAI && !allowAI {
			continue
		}
		if _, mastered := excluded[q.ID]; mastered {
			continue
		}
		candidates = append(candidates, q)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyBank
	}

	picked := candidates[rand.Intn(len(candidates))]
	resp := picked.ForStudent()
	return &resp, nil
}

// BankStats summarizes the practice pool for one student.
type BankStats struct {
	TotalEnabled int `json:"total_enabled"`
	Mastered     int `json:"mastered"`
	Remaining    int `json:"remaining"`
}

// Stats reports how much of the bank is still open to the student, using the
// same filter as NextQuestion.
func (s *PracticeService) Stats(ctx context.Context, studentID string, allowAI bool) (*BankStats, error) {
	questions, err := s.bank.All()
	if err != nil {
		return nil, err
	}
	excluded, err := s.eligibility.ExcludedQuestions(ctx, studentID)
	if err != nil {
		return nil, err
	}

	stats := &BankStats{}
	for i := range questions {
		q := &questions[i]
		if !q.Enabled {
			continue
		}
		stats.TotalEnabled++
		if q.IsAI && !allowAI {
			continue
		}
		if _, mastered := excluded[q.ID]; mastered {
			stats.Mastered++
			continue
		}
		stats.Remaining++
	}
	return stats, nil
}

// SubmitAnswer scores one practice answer, appends it to the history and
// returns the verdict with the canonical answer and the student's running
// stats for the question.
func (s *PracticeService) SubmitAnswer(ctx context.Context, studentID, questionID string, answer json.RawMessage) (*PracticeResult, error) {
	isCorrect, explanation, err := s.checker.CheckAnswer(questionID, answer)
	if err != nil {
		return nil, err
	}

	rec := &model.AnswerRecord{
		StudentID:  studentID,
		QuestionID: questionID,
		IsCorrect:  isCorrect,
		Answer:     answer,
		AnswerTime: s.now(),
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, err
	}

	q, err := s.checker.Get(questionID)
	if err != nil {
		return nil, err
	}
	stats, err := s.records.QuestionStats(ctx, studentID, questionID)
	if err != nil {
		return nil, err
	}

	return &PracticeResult{
		IsCorrect:   isCorrect,
		Explanation: explanation,
		Answer:      q.Answer,
		Stats:       *stats,
	}, nil
}
