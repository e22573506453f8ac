package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// windowRecorder captures the cutoffs the eligibility engine derives.
type windowRecorder struct {
	fakeRecordWindow
	masteredSince, poolSince time.Time
	threshold                int
}

func (w *windowRecorder) MasteredQuestions(ctx context.Context, studentID string, since time.Time, threshold int) (map[string]struct{}, error) {
	w.masteredSince = since
	w.threshold = threshold
	return w.fakeRecordWindow.MasteredQuestions(ctx, studentID, since, threshold)
}

func (w *windowRecorder) DistinctCorrectSince(ctx context.Context, studentID string, since time.Time) ([]string, error) {
	w.poolSince = since
	return w.fakeRecordWindow.DistinctCorrectSince(ctx, studentID, since)
}

func TestEligibilityWindows(t *testing.T) {
	rec := &windowRecorder{fakeRecordWindow: fakeRecordWindow{
		mastered: map[string]struct{}{"q1": {}},
		pool:     []string{"q1", "q2", "q3"},
	}}
	settings := testSettings(t, map[string]string{
		"cycle_days":          "3",
		"question_range_days": "7",
		"correct_threshold":   "3",
	})
	svc := NewEligibilityService(rec, settings, zerolog.Nop())

	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	excluded, err := svc.ExcludedQuestions(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ExcludedQuestions: %v", err)
	}
	if _, ok := excluded["q1"]; !ok {
		t.Fatal("q1 should be excluded")
	}
	if want := now.AddDate(0, 0, -3); !rec.masteredSince.Equal(want) {
		t.Fatalf("mastered cutoff %v, want %v", rec.masteredSince, want)
	}
	if rec.threshold != 3 {
		t.Fatalf("threshold %d, want 3", rec.threshold)
	}

	pool, err := svc.ExamPool(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ExamPool: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("pool size %d, want 3", len(pool))
	}
	if want := now.AddDate(0, 0, -7); !rec.poolSince.Equal(want) {
		t.Fatalf("pool cutoff %v, want %v", rec.poolSince, want)
	}
}

func TestIsEligibleForExam(t *testing.T) {
	rec := &fakeRecordWindow{pool: []string{"q1", "q2", "q3"}}
	settings := testSettings(t, map[string]string{
		"practice_threshold":  "3",
		"exam_question_count": "3",
	})
	svc := NewEligibilityService(rec, settings, zerolog.Nop())

	eligible, size, required, err := svc.IsEligibleForExam(context.Background(), "s1")
	if err != nil {
		t.Fatalf("IsEligibleForExam: %v", err)
	}
	if !eligible || size != 3 || required != 3 {
		t.Fatalf("got eligible=%v size=%d required=%d", eligible, size, required)
	}

	rec.pool = rec.pool[:2]
	eligible, _, _, err = svc.IsEligibleForExam(context.Background(), "s1")
	if err != nil {
		t.Fatalf("IsEligibleForExam small pool: %v", err)
	}
	if eligible {
		t.Fatal("pool of 2 should not be eligible at threshold 3")
	}
}
