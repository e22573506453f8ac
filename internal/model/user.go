package model

import "time"

// User is a student identity. Students are identified by an externally
// asserted student ID, not a password; the IP binding fields implement the
// per-calendar-day session binding.
type User struct {
	StudentID  string     `json:"student_id"`
	Name       string     `json:"name"`
	BoundIP    *string    `json:"bound_ip,omitempty"`
	BoundTime  *time.Time `json:"bound_time,omitempty"`
	EnableAI   bool       `json:"enable_ai"`
	EnableExam bool       `json:"enable_exam"`
}

// LoginRequest is the student login payload. Name is only required for
// first-time registration.
type LoginRequest struct {
	StudentID string `json:"student_id" binding:"required,min=1,max=20"`
	Name      string `json:"name" binding:"omitempty,min=2,max=50"`
}

// AdminLoginRequest is the admin login payload.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=50"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// UpdatePermissionRequest toggles a per-user feature permission.
type UpdatePermissionRequest struct {
	Enable *bool `json:"enable" binding:"required"`
}

// UserStats summarizes a student's practice history plus today's reward code,
// if one was earned.
type UserStats struct {
	TotalQuestions int     `json:"totalQuestions"`
	CorrectRate    float64 `json:"correctRate"`
	TodayCode      *string `json:"todayCode"`
}

// UserProgress is the admin view of a single student.
type UserProgress struct {
	StudentID        string     `json:"student_id"`
	Name             string     `json:"name"`
	BoundIP          *string    `json:"bound_ip"`
	BoundTime        *time.Time `json:"bound_time"`
	TotalQuestions   int        `json:"total_questions"`
	CorrectQuestions int        `json:"correct_questions"`
	Accuracy         float64    `json:"accuracy"`
	ExamCount        int        `json:"exam_count"`
	LastExamScore    *float64   `json:"last_exam_score"`
	HasCode          bool       `json:"has_code"`
	EnableAI         bool       `json:"enable_ai"`
	EnableExam       bool       `json:"enable_exam"`
}
