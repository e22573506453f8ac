package model

import (
	"encoding/json"
	"time"
)

// AnswerRecord is one practice attempt. The log is append-only; rows are only
// removed when the student or the question is deleted.
type AnswerRecord struct {
	ID         int64           `json:"id"`
	StudentID  string          `json:"student_id"`
	QuestionID string          `json:"question_id"`
	IsCorrect  bool            `json:"is_correct"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	AnswerTime time.Time       `json:"answer_time"`
}

// AnswerRequest is the practice answer submission payload.
type AnswerRequest struct {
	QuestionID string          `json:"question_id" binding:"required,min=1,max=20"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// QuestionRecordStats counts a student's attempts at one question.
type QuestionRecordStats struct {
	CorrectCount int `json:"correct_count"`
	WrongCount   int `json:"wrong_count"`
}

// CodeRecord tracks the daily reward code handed to a student after a passed
// exam. One row per student per day at most.
type CodeRecord struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Code      string    `json:"code"`
	GetTime   time.Time `json:"get_time"`
}
