package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestSettingsDefaults(t *testing.T) {
	svc := testSettings(t, nil)
	cfg := svc.Current()
	if cfg.ExamQuestionCount != 10 || cfg.PracticeThreshold != 10 || cfg.PassScore != 60 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.EnableExam || !cfg.EnableRegistration {
		t.Fatalf("feature flags should default on: %+v", cfg)
	}
}

func TestSettingsLoadOverrides(t *testing.T) {
	svc := testSettings(t, map[string]string{
		"exam_question_count": "5",
		"practice_threshold":  "8",
		"pass_score":          "72.5",
		"enable_exam":         "false",
	})
	cfg := svc.Current()
	if cfg.ExamQuestionCount != 5 || cfg.PracticeThreshold != 8 || cfg.PassScore != 72.5 || cfg.EnableExam {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestSettingsLoadRejectsInvalidAndKeepsSnapshot(t *testing.T) {
	store := &fakeSettingStore{values: map[string]string{}}
	svc := NewSettingsService(store, zerolog.Nop())

	// practice_threshold below exam_question_count is inconsistent.
	store.values["practice_threshold"] = "3"
	if err := svc.Load(context.Background()); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
	if cfg := svc.Current(); cfg.PracticeThreshold != 10 {
		t.Fatalf("snapshot changed after failed load: %+v", cfg)
	}
}

func TestSettingsUpdateValidatesMergedResult(t *testing.T) {
	svc := testSettings(t, nil)

	err := svc.Update(context.Background(), map[string]string{"practice_threshold": "4"})
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}

	// Lowering both together is consistent and must pass.
	err = svc.Update(context.Background(), map[string]string{
		"practice_threshold":  "4",
		"exam_question_count": "4",
	})
	if err != nil {
		t.Fatalf("consistent update rejected: %v", err)
	}
	if cfg := svc.Current(); cfg.ExamQuestionCount != 4 || cfg.PracticeThreshold != 4 {
		t.Fatalf("snapshot not updated: %+v", cfg)
	}
}

func TestSettingsUpdateRejectsUnknownKey(t *testing.T) {
	svc := testSettings(t, nil)
	if err := svc.Update(context.Background(), map[string]string{"no_such_key": "1"}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}
