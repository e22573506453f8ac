package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/repository"
)

type fakeBank struct {
	questions map[string]*model.Question
}

func newFakeBank(questions ...*model.Question) *fakeBank {
	f := &fakeBank{questions: make(map[string]*model.Question)}
	for _, q := range questions {
		f.questions[q.ID] = q
	}
	return f
}

func (f *fakeBank) Load() ([]model.Question, error) { return f.All() }

func (f *fakeBank) All() ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.questions {
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeBank) ByID(id string) (*model.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, repository.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeBank) Upsert(q *model.Question) error {
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeBank) Delete(id string) error {
	if _, ok := f.questions[id]; !ok {
		return repository.ErrQuestionNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeBank) Invalidate() {}

type fakeCascade struct {
	deleted []string
}

func (f *fakeCascade) DeleteReferencing(_ context.Context, questionID string) error {
	f.deleted = append(f.deleted, questionID)
	return nil
}

func newTestQuestionService(questions ...*model.Question) (*QuestionService, *fakeCascade) {
	cascade := &fakeCascade{}
	return NewQuestionService(newFakeBank(questions...), cascade, zerolog.Nop()), cascade
}

func TestCheckAnswerSingle(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeSingle,
		Answer:  json.RawMessage(`"B"`),
		Enabled: true,
	})

	cases := []struct {
		submitted string
		want      bool
	}{
		{`"B"`, true},
		{`"A"`, false},
		{`"b"`, false}, // letters are case sensitive
		{`["B"]`, false},
	}
	for _, tc := range cases {
		got, _, err := svc.CheckAnswer("q1", json.RawMessage(tc.submitted))
		if err != nil {
			t.Fatalf("CheckAnswer(%s): %v", tc.submitted, err)
		}
		if got != tc.want {
			t.Errorf("CheckAnswer(%s) = %v, want %v", tc.submitted, got, tc.want)
		}
	}
}

func TestCheckAnswerMultiple(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeMultiple,
		Answer:  json.RawMessage(`["A","C"]`),
		Enabled: true,
	})

	cases := []struct {
		submitted string
		want      bool
	}{
		{`["A","C"]`, true},
		{`["C","A"]`, true}, // order independent
		{`["A"]`, false},    // no partial credit
		{`["A","C","D"]`, false},
		{`"A"`, false}, // bare letter is a subset, still wrong
	}
	for _, tc := range cases {
		got, _, err := svc.CheckAnswer("q1", json.RawMessage(tc.submitted))
		if err != nil {
			t.Fatalf("CheckAnswer(%s): %v", tc.submitted, err)
		}
		if got != tc.want {
			t.Errorf("CheckAnswer(%s) = %v, want %v", tc.submitted, got, tc.want)
		}
	}
}

func TestCheckAnswerJudge(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeJudge,
		Answer:  json.RawMessage(`true`),
		Enabled: true,
	})

	if got, _, _ := svc.CheckAnswer("q1", json.RawMessage(`true`)); !got {
		t.Error("true should match")
	}
	if got, _, _ := svc.CheckAnswer("q1", json.RawMessage(`false`)); got {
		t.Error("false should not match")
	}
	if got, _, _ := svc.CheckAnswer("q1", json.RawMessage(`"true"`)); got {
		t.Error("string shape should not match a boolean answer")
	}
}

func TestCheckAnswerBlank(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeBlank,
		Answer:  json.RawMessage(`"Jakarta"`),
		Enabled: true,
	})

	cases := []struct {
		submitted string
		want      bool
	}{
		{`"Jakarta"`, true},
		{`"jakarta"`, true},     // case insensitive
		{`"  Jakarta  "`, true}, // surrounding whitespace ignored
		{`"Bandung"`, false},
	}
	for _, tc := range cases {
		got, _, err := svc.CheckAnswer("q1", json.RawMessage(tc.submitted))
		if err != nil {
			t.Fatalf("CheckAnswer(%s): %v", tc.submitted, err)
		}
		if got != tc.want {
			t.Errorf("CheckAnswer(%s) = %v, want %v", tc.submitted, got, tc.want)
		}
	}
}

func TestCheckAnswerEssay(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeEssay,
		Answer:  json.RawMessage(`"fotosintesis klorofil"`),
		Enabled: true,
	})

	cases := []struct {
		submitted string
		want      bool
	}{
		{`"Proses FOTOSINTESIS membutuhkan klorofil dan cahaya."`, true},
		{`"Tumbuhan membutuhkan cahaya matahari."`, false}, // missing keywords
		{`"hanya klorofil"`, false},                        // one keyword is not enough
	}
	for _, tc := range cases {
		got, _, err := svc.CheckAnswer("q1", json.RawMessage(tc.submitted))
		if err != nil {
			t.Fatalf("CheckAnswer(%s): %v", tc.submitted, err)
		}
		if got != tc.want {
			t.Errorf("CheckAnswer(%s) = %v, want %v", tc.submitted, got, tc.want)
		}
	}
}

func TestCheckAnswerUnknownQuestion(t *testing.T) {
	svc, _ := newTestQuestionService()
	if _, _, err := svc.CheckAnswer("missing", json.RawMessage(`"A"`)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, cascade := newTestQuestionService(&model.Question{
		ID:      "q1",
		Type:    model.QuestionTypeSingle,
		Answer:  json.RawMessage(`"A"`),
		Enabled: true,
	})

	if err := svc.Delete(context.Background(), "q1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(cascade.deleted) != 1 || cascade.deleted[0] != "q1" {
		t.Fatalf("cascade deletions %v, want [q1]", cascade.deleted)
	}
	if _, err := svc.Get("q1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetForStudentStripsAnswer(t *testing.T) {
	svc, _ := newTestQuestionService(&model.Question{
		ID:          "q1",
		Type:        model.QuestionTypeSingle,
		Options:     []string{"A. satu", "B. dua"},
		Answer:      json.RawMessage(`"A"`),
		Explanation: "rahasia",
		Enabled:     true,
	})

	resp, err := svc.GetForStudent("q1")
	if err != nil {
		t.Fatalf("GetForStudent: %v", err)
	}
	raw, _ := json.Marshal(resp)
	for _, leak := range []string{"answer", "rahasia"} {
		if strings.Contains(string(raw), leak) {
			t.Fatalf("student payload leaks %q: %s", leak, raw)
		}
	}
	if len(resp.Options) != 2 {
		t.Fatalf("options %v, want both kept", resp.Options)
	}
}
