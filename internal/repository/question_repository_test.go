package repository

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stemsi/ujianku-backend/internal/model"
)

func newTestBank(t *testing.T, contents string) *QuestionRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	if contents != "" {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write bank: %v", err)
		}
	}
	repo, err := NewQuestionRepository(path)
	if err != nil {
		t.Fatalf("NewQuestionRepository: %v", err)
	}
	return repo
}

const validBank = `{
  "questions": [
    {
      "id": "q1",
      "type": "single",
      "difficulty": 1,
      "content": "Berapa 1+1?",
      "options": ["A. 1", "B. 2"],
      "answer": "B",
      "enabled": true
    },
    {
      "id": "q2",
      "type": "judge",
      "difficulty": 2,
      "content": "2 adalah bilangan genap.",
      "answer": true,
      "enabled": true
    }
  ]
}`

func TestLoadValidBank(t *testing.T) {
	repo := newTestBank(t, validBank)

	questions, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(questions))
	}

	q, err := repo.ByID("q1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if q.Type != model.QuestionTypeSingle {
		t.Fatalf("type %s, want single", q.Type)
	}
}

func TestLoadFailsWholeOnOneBadEntry(t *testing.T) {
	repo := newTestBank(t, `{
  "questions": [
    {"id": "ok", "type": "judge", "difficulty": 1, "content": "x", "answer": true},
    {"id": "bad", "type": "single", "difficulty": 1, "content": "y",
     "options": ["A. 1", "B. 2"], "answer": "C"}
  ]
}`)

	if _, err := repo.Load(); err == nil {
		t.Fatal("expected load to fail on answer outside option labels")
	}
	// The good entry must not be served either.
	if _, err := repo.ByID("ok"); err == nil {
		t.Fatal("partial bank must not be served")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	repo := newTestBank(t, `{
  "questions": [
    {"id": "q1", "type": "judge", "difficulty": 1, "content": "x", "answer": true},
    {"id": "q1", "type": "judge", "difficulty": 1, "content": "y", "answer": false}
  ]
}`)

	if _, err := repo.Load(); err == nil {
		t.Fatal("expected load to fail on duplicate ids")
	}
}

func TestLoadRejectsMalformedOptionLabels(t *testing.T) {
	repo := newTestBank(t, `{
  "questions": [
    {"id": "q1", "type": "single", "difficulty": 1, "content": "x",
     "options": ["1) satu", "2) dua"], "answer": "A"}
  ]
}`)

	if _, err := repo.Load(); err == nil {
		t.Fatal("expected load to fail on unlabeled options")
	}
}

func TestMissingFileCreatedEmpty(t *testing.T) {
	repo := newTestBank(t, "")

	questions, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("fresh bank has %d questions, want 0", len(questions))
	}
}

func TestUpsertPersistsAndInvalidates(t *testing.T) {
	repo := newTestBank(t, validBank)
	if _, err := repo.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := repo.Upsert(&model.Question{
		ID:         "q3",
		Type:       model.QuestionTypeBlank,
		Difficulty: 2,
		Content:    "Ibu kota Indonesia adalah ____.",
		Answer:     json.RawMessage(`"Jakarta"`),
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	q, err := repo.ByID("q3")
	if err != nil {
		t.Fatalf("ByID after upsert: %v", err)
	}
	if q.Content == "" {
		t.Fatal("upserted question is empty")
	}

	// Replacing an existing id keeps the bank size stable.
	q.Content = "Ibu kota Indonesia?"
	if err := repo.Upsert(q); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	all, err := repo.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("bank size %d after replace, want 3", len(all))
	}
}

func TestUpsertRejectsInvalidQuestion(t *testing.T) {
	repo := newTestBank(t, validBank)

	err := repo.Upsert(&model.Question{
		ID:         "nope",
		Type:       model.QuestionTypeSingle,
		Difficulty: 9,
		Content:    "x",
		Options:    []string{"A. a", "B. b"},
		Answer:     json.RawMessage(`"A"`),
	})
	if err == nil {
		t.Fatal("expected difficulty validation to fail")
	}
}

func TestDeleteRemovesQuestion(t *testing.T) {
	repo := newTestBank(t, validBank)

	if err := repo.Delete("q1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.ByID("q1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if err := repo.Delete("q1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}
