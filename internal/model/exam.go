package model

import (
	"encoding/json"
	"math"
	"time"
)

// ExamStatus enumerates exam states. COMPLETED and EXPIRED are terminal:
// no code path ever transitions out of them.
type ExamStatus string

const (
	ExamStatusInProgress ExamStatus = "in_progress"
	ExamStatusCompleted  ExamStatus = "completed"
	ExamStatusExpired    ExamStatus = "expired"
)

// Terminal reports whether s is a terminal state.
func (s ExamStatus) Terminal() bool {
	return s == ExamStatusCompleted || s == ExamStatusExpired
}

// Exam is one student's exam attempt. The time box is fixed at creation:
// EndTime is never extended.
type Exam struct {
	ExamID          string     `json:"exam_id"`
	StudentID       string     `json:"student_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	SubmitTime      *time.Time `json:"submit_time,omitempty"`
	QuestionCount   int        `json:"question_count"`
	CurrentProgress int        `json:"current_progress"`
	CorrectCount    int        `json:"correct_count"`
	Status          ExamStatus `json:"status"`
}

// Score returns the display score, rounded to one decimal place.
func (e *Exam) Score() float64 {
	if e.QuestionCount == 0 {
		return 0
	}
	return math.Round(float64(e.CorrectCount)/float64(e.QuestionCount)*1000) / 10
}

// Passed reports whether the exam meets the pass threshold (compared with >=).
func (e *Exam) Passed(passScore float64) bool {
	return e.Score() >= passScore
}

// ExamRecord is one snapshotted question inside an exam. Created with the
// exam in a single transaction; StudentAnswer/IsCorrect are written exactly
// once, on the first valid submission.
type ExamRecord struct {
	ID            int64           `json:"id"`
	StudentID     string          `json:"student_id"`
	ExamID        string          `json:"exam_id"`
	QuestionID    string          `json:"question_id"`
	StudentAnswer json.RawMessage `json:"student_answer,omitempty"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
}

// OngoingExamStatus answers the "do I have a running exam" check. When there
// is none, it carries the eligibility pool progress instead.
type OngoingExamStatus struct {
	HasOngoingExam bool   `json:"has_ongoing_exam"`
	ExamID         string `json:"exam_id,omitempty"`
	CorrectCount   int    `json:"correct_count,omitempty"`
	RequiredCount  int    `json:"required_count,omitempty"`
}

// ExamQuestions is the snapshot as served to the owning student.
type ExamQuestions struct {
	Questions       []string  `json:"questions"`
	CurrentProgress int       `json:"current_progress"`
	EndTime         time.Time `json:"end_time"`
}

// SubmitAnswerRequest is the exam answer submission payload.
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// SubmitResult is returned after a scored exam answer.
type SubmitResult struct {
	IsCorrect       bool       `json:"is_correct"`
	Explanation     string     `json:"explanation"`
	CurrentProgress int        `json:"current_progress"`
	ExamStatus      ExamStatus `json:"exam_status"`
}

// ExamQuestionDetail is one question in the post-exam review: full question,
// the student's answer and whether it was correct.
type ExamQuestionDetail struct {
	Question
	StudentAnswer json.RawMessage `json:"student_answer,omitempty"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
}

// ExamDetail is the full review of one exam.
type ExamDetail struct {
	ExamID          string               `json:"exam_id"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	SubmitTime      *time.Time           `json:"submit_time,omitempty"`
	Status          ExamStatus           `json:"status"`
	CurrentProgress int                  `json:"current_progress"`
	QuestionCount   int                  `json:"question_count"`
	CorrectCount    int                  `json:"correct_count"`
	Score           float64              `json:"score"`
	Questions       []ExamQuestionDetail `json:"questions"`
}

// AdminExamDetail extends ExamDetail with student identity for the admin view.
type AdminExamDetail struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	ExamDetail
}

// ExamSummary is one row of a student's exam history.
type ExamSummary struct {
	ExamID        string     `json:"exam_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	SubmitTime    *time.Time `json:"submit_time,omitempty"`
	Status        ExamStatus `json:"status"`
	QuestionCount int        `json:"question_count"`
	CorrectCount  int        `json:"correct_count"`
	Score         float64    `json:"score"`
}
