package model

import "encoding/json"

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeJudge    QuestionType = "judge"
	QuestionTypeBlank    QuestionType = "blank"
	QuestionTypeEssay    QuestionType = "essay"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeJudge, QuestionTypeBlank, QuestionTypeEssay:
		return true
	}
	return false
}

// Question is a bank entry. The answer shape depends on Type:
// a single letter, a list of letters, a boolean, or free text —
// so it is kept as raw JSON and decoded at comparison time.
type Question struct {
	ID                string          `json:"id"`
	Type              QuestionType    `json:"type"`
	Difficulty        int             `json:"difficulty"`
	Content           string          `json:"content"`
	Options           []string        `json:"options,omitempty"`
	Answer            json.RawMessage `json:"answer"`
	Explanation       string          `json:"explanation,omitempty"`
	IsAI              bool            `json:"is_ai"`
	RelatedQuestionID string          `json:"related_question_id,omitempty"`
	Enabled           bool            `json:"enabled"`
	Tags              []string        `json:"tags,omitempty"`
}

// QuestionResponse is a question as served to students: no answer, no
// explanation. Options are only included for choice types.
type QuestionResponse struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Difficulty int          `json:"difficulty"`
	Content    string       `json:"content"`
	Options    []string     `json:"options,omitempty"`
}

// ForStudent strips the answer and explanation from a question.
func (q *Question) ForStudent() QuestionResponse {
	resp := QuestionResponse{
		ID:         q.ID,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		Content:    q.Content,
	}
	if q.Type == QuestionTypeSingle || q.Type == QuestionTypeMultiple {
		resp.Options = q.Options
	}
	return resp
}

// UpsertQuestionRequest is the admin payload for creating or updating a
// question. The answer shape is validated against the type by the service.
type UpsertQuestionRequest struct {
	Type              QuestionType    `json:"type" binding:"required,oneof=single multiple judge blank essay"`
	Difficulty        int             `json:"difficulty" binding:"required,min=1,max=3"`
	Content           string          `json:"content" binding:"required,min=1,max=2000"`
	Options           []string        `json:"options" binding:"omitempty,max=26"`
	Answer            json.RawMessage `json:"answer" binding:"required"`
	Explanation       string          `json:"explanation" binding:"omitempty,max=2000"`
	IsAI              bool            `json:"is_ai"`
	RelatedQuestionID string          `json:"related_question_id" binding:"omitempty,max=20"`
	Enabled           *bool           `json:"enabled"`
	Tags              []string        `json:"tags" binding:"omitempty,max=20"`
}
