package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
)

type fakePracticeLog struct {
	saved []model.AnswerRecord
	stats model.QuestionRecordStats
}

func (f *fakePracticeLog) Save(_ context.Context, rec *model.AnswerRecord) error {
	rec.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, *rec)
	return nil
}

func (f *fakePracticeLog) QuestionStats(context.Context, string, string) (*model.QuestionRecordStats, error) {
	stats := f.stats
	return &stats, nil
}

func newTestPracticeService(t *testing.T, mastered map[string]struct{}, questions ...*model.Question) (*PracticeService, *fakePracticeLog) {
	t.Helper()
	bank := newFakeBank(questions...)
	checker := NewQuestionService(bank, &fakeCascade{}, zerolog.Nop())
	eligibility := NewEligibilityService(&fakeRecordWindow{mastered: mastered}, testSettings(t, nil), zerolog.Nop())
	log := &fakePracticeLog{}
	svc := NewPracticeService(bank, checker, eligibility, log, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC) }
	return svc, log
}

func judgeQuestion(id string, enabled, isAI bool) *model.Question {
	return &model.Question{
		ID:         id,
		Type:       model.QuestionTypeJudge,
		Difficulty: 1,
		Content:    "soal " + id,
		Answer:     json.RawMessage(`true`),
		Enabled:    enabled,
		IsAI:       isAI,
	}
}

func TestNextQuestionSkipsMasteredAndDisabled(t *testing.T) {
	svc, _ := newTestPracticeService(t,
		map[string]struct{}{"mastered": {}},
		judgeQuestion("mastered", true, false),
		judgeQuestion("disabled", false, false),
		judgeQuestion("fresh", true, false),
	)

	for i := 0; i < 20; i++ {
		q, err := svc.NextQuestion(context.Background(), "s1", false)
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if q.ID != "fresh" {
			t.Fatalf("drew %s, only fresh is eligible", q.ID)
		}
	}
}

func TestNextQuestionGatesAIQuestions(t *testing.T) {
	svc, _ := newTestPracticeService(t, nil,
		judgeQuestion("ai-only", true, true),
	)

	if _, err := svc.NextQuestion(context.Background(), "s1", false); !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank without AI permission, got %v", err)
	}

	q, err := svc.NextQuestion(context.Background(), "s1", true)
	if err != nil {
		t.Fatalf("NextQuestion with AI permission: %v", err)
	}
	if q.ID != "ai-only" {
		t.Fatalf("drew %s, want ai-only", q.ID)
	}
}

func TestNextQuestionEmptyBank(t *testing.T) {
	svc, _ := newTestPracticeService(t, nil)
	if _, err := svc.NextQuestion(context.Background(), "s1", true); !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}

func TestStatsCountsPool(t *testing.T) {
	svc, _ := newTestPracticeService(t,
		map[string]struct{}{"mastered": {}},
		judgeQuestion("mastered", true, false),
		judgeQuestion("disabled", false, false),
		judgeQuestion("fresh", true, false),
		judgeQuestion("ai", true, true),
	)

	stats, err := svc.Stats(context.Background(), "s1", false)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalEnabled != 3 {
		t.Fatalf("total enabled %d, want 3", stats.TotalEnabled)
	}
	if stats.Mastered != 1 {
		t.Fatalf("mastered %d, want 1", stats.Mastered)
	}
	if stats.Remaining != 1 {
		t.Fatalf("remaining %d, want 1 (AI question gated)", stats.Remaining)
	}

	stats, err = svc.Stats(context.Background(), "s1", true)
	if err != nil {
		t.Fatalf("Stats with AI permission: %v", err)
	}
	if stats.Remaining != 2 {
		t.Fatalf("remaining %d, want 2 with AI permission", stats.Remaining)
	}
}

func TestSubmitAnswerLogsAttempt(t *testing.T) {
	svc, log := newTestPracticeService(t, nil, judgeQuestion("q1", true, false))
	log.stats = model.QuestionRecordStats{CorrectCount: 3, WrongCount: 1}

	result, err := svc.SubmitAnswer(context.Background(), "s1", "q1", json.RawMessage(`true`))
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !result.IsCorrect {
		t.Fatal("matching judge answer must score correct")
	}
	if string(result.Answer) != `true` {
		t.Fatalf("canonical answer %s, want true", result.Answer)
	}
	if result.Stats.CorrectCount != 3 {
		t.Fatalf("stats %+v not passed through", result.Stats)
	}

	if len(log.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(log.saved))
	}
	rec := log.saved[0]
	if rec.StudentID != "s1" || rec.QuestionID != "q1" || !rec.IsCorrect {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSubmitAnswerWrongStillLogged(t *testing.T) {
	svc, log := newTestPracticeService(t, nil, judgeQuestion("q1", true, false))

	result, err := svc.SubmitAnswer(context.Background(), "s1", "q1", json.RawMessage(`false`))
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.IsCorrect {
		t.Fatal("wrong answer scored correct")
	}
	if len(log.saved) != 1 || log.saved[0].IsCorrect {
		t.Fatalf("wrong attempt not logged correctly: %+v", log.saved)
	}
}
