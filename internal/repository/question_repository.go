package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stemsi/ujianku-backend/internal/model"
)

// ErrQuestionNotFound is returned when a question id is not in the bank.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionRepository serves the question bank: a JSON document collection
// owned externally (the question editor writes it), cached in memory here.
// A load is all-or-nothing: one invalid entry fails the whole load so a
// corrupt bank never serves partial exams.
type QuestionRepository struct {
	path string

	mu    sync.RWMutex
	cache []model.Question // nil means not loaded
}

type questionFile struct {
	Questions []model.Question `json:"questions"`
}

// NewQuestionRepository creates a QuestionRepository backed by the JSON file
// at path. The file is created empty if missing.
func NewQuestionRepository(path string) (*QuestionRepository, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		empty, _ := json.MarshalIndent(questionFile{Questions: []model.Question{}}, "", "  ")
		if err := os.WriteFile(path, empty, 0o644); err != nil {
			return nil, fmt.Errorf("init question bank: %w", err)
		}
	}
	return &QuestionRepository{path: path}, nil
}

// Load reads and validates the whole bank, replacing the cache.
func (r *QuestionRepository) Load() ([]model.Question, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var file questionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Questions))
	for i := range file.Questions {
		q := &file.Questions[i]
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, err)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	r.mu.Lock()
	r.cache = file.Questions
	r.mu.Unlock()

	return file.Questions, nil
}

// All returns the cached bank, loading it lazily if needed.
func (r *QuestionRepository) All() ([]model.Question, error) {
	r.mu.RLock()
	cached := r.cache
	r.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}
	return r.Load()
}

// ByID returns the question with the given id, or ErrQuestionNotFound.
func (r *QuestionRepository) ByID(id string) (*model.Question, error) {
	questions, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].ID == id {
			q := questions[i]
			return &q, nil
		}
	}
	return nil, ErrQuestionNotFound
}

// Upsert creates or replaces a question and rewrites the bank file.
func (r *QuestionRepository) Upsert(q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}

	questions, err := r.All()
	if err != nil {
		return err
	}

	updated := make([]model.Question, len(questions))
	copy(updated, questions)

	found := false
	for i := range updated {
		if updated[i].ID == q.ID {
			updated[i] = *q
			found = true
			break
		}
	}
	if !found {
		updated = append(updated, *q)
	}

	return r.persist(updated)
}

// Delete removes a question from the bank file. Cascading removal of
// referencing answer/exam records is the caller's responsibility.
func (r *QuestionRepository) Delete(id string) error {
	questions, err := r.All()
	if err != nil {
		return err
	}

	updated := make([]model.Question, 0, len(questions))
	for i := range questions {
		if questions[i].ID != id {
			updated = append(updated, questions[i])
		}
	}
	if len(updated) == len(questions) {
		return ErrQuestionNotFound
	}

	return r.persist(updated)
}

// Invalidate drops the in-memory cache; the next read reloads from disk.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}

// persist writes the bank atomically (temp file + rename) and invalidates
// the cache so the next read observes the new contents.
func (r *QuestionRepository) persist(questions []model.Question) error {
	raw, err := json.MarshalIndent(questionFile{Questions: questions}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write question bank: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace question bank: %w", err)
	}

	r.Invalidate()
	return nil
}

// validateQuestion enforces the bank invariants: known type, difficulty in
// range, and for choice types answer letters that exist among the option
// labels ("A. ", "B. ", ...).
func validateQuestion(q *model.Question) error {
	if q.ID == "" {
		return errors.New("empty id")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unknown type %q", q.Type)
	}
	if q.Difficulty < 1 || q.Difficulty > 3 {
		return fmt.Errorf("difficulty %d out of range", q.Difficulty)
	}
	if strings.TrimSpace(q.Content) == "" {
		return errors.New("empty content")
	}

	switch q.Type {
	case model.QuestionTypeSingle, model.QuestionTypeMultiple:
		if len(q.Options) < 2 {
			return errors.New("choice question needs at least two options")
		}
		labels := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if len(opt) < 3 || opt[0] < 'A' || opt[0] > 'Z' || opt[1] != '.' || opt[2] != ' ' {
				return fmt.Errorf("option %q is not labeled like %q", opt, "A. ...")
			}
			labels[string(opt[0])] = struct{}{}
		}
		for _, letter := range answerLetters(q) {
			if _, ok := labels[letter]; !ok {
				return fmt.Errorf("answer %q is not an option label", letter)
			}
		}
	case model.QuestionTypeJudge:
		var b bool
		if err := json.Unmarshal(q.Answer, &b); err != nil {
			return errors.New("judge answer must be a boolean")
		}
	case model.QuestionTypeBlank, model.QuestionTypeEssay:
		var s string
		if err := json.Unmarshal(q.Answer, &s); err != nil || strings.TrimSpace(s) == "" {
			return errors.New("answer must be a non-empty string")
		}
	}
	return nil
}

// answerLetters decodes the canonical answer of a choice question into its
// letters. Returns nil when the answer shape does not match the type so the
// subset check above fails loudly.
func answerLetters(q *model.Question) []string {
	switch q.Type {
	case model.QuestionTypeSingle:
		var s string
		if err := json.Unmarshal(q.Answer, &s); err != nil || s == "" {
			return []string{""}
		}
		return []string{s}
	case model.QuestionTypeMultiple:
		var list []string
		if err := json.Unmarshal(q.Answer, &list); err != nil || len(list) == 0 {
			return []string{""}
		}
		return list
	}
	return nil
}
