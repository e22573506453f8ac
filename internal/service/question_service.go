package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/repository"
)

// QuestionBank is the question collection the service sits on.
type QuestionBank interface {
	Load() ([]model.Question, error)
	All() ([]model.Question, error)
	ByID(id string) (*model.Question, error)
	Upsert(q *model.Question) error
	Delete(id string) error
	Invalidate()
}

// QuestionCascade removes the rows that reference a deleted question.
type QuestionCascade interface {
	DeleteReferencing(ctx context.Context, questionID string) error
}

// QuestionService answers correctness checks and owns bank mutations.
type QuestionService struct {
	bank    QuestionBank
	cascade QuestionCascade
	log     zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(bank QuestionBank, cascade QuestionCascade, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		bank:    bank,
		cascade: cascade,
		log:     log.With().Str("component", "question_service").Logger(),
	}
}

// Get returns the full question (admin / post-exam review).
func (s *QuestionService) Get(id string) (*model.Question, error) {
	q, err := s.bank.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// GetForStudent returns the question without its answer and explanation.
func (s *QuestionService) GetForStudent(id string) (*model.QuestionResponse, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	resp := q.ForStudent()
	return &resp, nil
}

// CheckAnswer compares a submitted answer against the canonical one and
// returns the correctness verdict with the question's explanation.
func (s *QuestionService) CheckAnswer(id string, submitted json.RawMessage) (bool, string, error) {
	q, err := s.Get(id)
	if err != nil {
		return false, "", err
	}
	correct, err := compareAnswer(q, submitted)
	if err != nil {
		return false, "", err
	}
	return correct, q.Explanation, nil
}

// Upsert creates or replaces a question and invalidates the cache.
func (s *QuestionService) Upsert(id string, req *model.UpsertQuestionRequest) error {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	q := &model.Question{
		ID:                id,
		Type:              req.Type,
		Difficulty:        req.Difficulty,
		Content:           req.Content,
		Options:           req.Options,
		Answer:            req.Answer,
		Explanation:       req.Explanation,
		IsAI:              req.IsAI,
		RelatedQuestionID: req.RelatedQuestionID,
		Enabled:           enabled,
		Tags:              req.Tags,
	}
	if err := s.bank.Upsert(q); err != nil {
		return fmt.Errorf("upsert question: %w", err)
	}
	s.log.Info().Str("question_id", id).Msg("Question upserted")
	return nil
}

// Delete removes a question from the bank and cascades the removal to every
// practice and exam record referencing it.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.cascade.DeleteReferencing(ctx, id); err != nil {
		return fmt.Errorf("cascade delete records: %w", err)
	}
	if err := s.bank.Delete(id); err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Str("question_id", id).Msg("Question deleted with cascade")
	return nil
}

// List returns the whole bank (admin view).
func (s *QuestionService) List() ([]model.Question, error) {
	return s.bank.All()
}

// compareAnswer implements the per-type comparison semantics.
func compareAnswer(q *model.Question, submitted json.RawMessage) (bool, error) {
	switch q.Type {
	case model.QuestionTypeSingle:
		var want, got string
		if err := json.Unmarshal(q.Answer, &want); err != nil {
			return false, fmt.Errorf("canonical answer of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(submitted, &got); err != nil {
			return false, nil // wrong shape is just a wrong answer
		}
		return got == want, nil

	case model.QuestionTypeMultiple:
		var want []string
		if err := json.Unmarshal(q.Answer, &want); err != nil {
			return false, fmt.Errorf("canonical answer of %s: %w", q.ID, err)
		}
		got, ok := decodeLetterSet(submitted)
		if !ok {
			return false, nil
		}
		// Set equality: order-independent, no partial credit.
		if len(got) != len(want) {
			return false, nil
		}
		for _, letter := range want {
			if _, present := got[letter]; !present {
				return false, nil
			}
		}
		return true, nil

	case model.QuestionTypeJudge:
		var want, got bool
		if err := json.Unmarshal(q.Answer, &want); err != nil {
			return false, fmt.Errorf("canonical answer of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(submitted, &got); err != nil {
			return false, nil
		}
		return got == want, nil

	case model.QuestionTypeBlank:
		var want, got string
		if err := json.Unmarshal(q.Answer, &want); err != nil {
			return false, fmt.Errorf("canonical answer of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(submitted, &got); err != nil {
			return false, nil
		}
		return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)), nil

	case model.QuestionTypeEssay:
		// Keyword-presence heuristic: every whitespace token of the canonical
		// answer must occur in the submission, case-insensitively.
		var want, got string
		if err := json.Unmarshal(q.Answer, &want); err != nil {
			return false, fmt.Errorf("canonical answer of %s: %w", q.ID, err)
		}
		if err := json.Unmarshal(submitted, &got); err != nil {
			return false, nil
		}
		lowered := strings.ToLower(got)
		for _, keyword := range strings.Fields(want) {
			if !strings.Contains(lowered, strings.ToLower(keyword)) {
				return false, nil
			}
		}
		return true, nil
	}

	return false, fmt.Errorf("unknown question type %q", q.Type)
}

// decodeLetterSet accepts either a JSON list of letters or a bare letter.
func decodeLetterSet(raw json.RawMessage) (map[string]struct{}, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, false
		}
		list = []string{single}
	}
	set := make(map[string]struct{}, len(list))
	for _, letter := range list {
		set[letter] = struct{}{}
	}
	return set, true
}
