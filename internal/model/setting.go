package model

import "time"

// AppSetting is one key-value row of hot-reloadable business configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys. Values are stored as strings and parsed by the settings
// service on every reload.
const (
	SettingCycleDays          = "cycle_days"
	SettingCorrectThreshold   = "correct_threshold"
	SettingExamDuration       = "exam_duration"
	SettingExamQuestionCount  = "exam_question_count"
	SettingQuestionRangeDays  = "question_range_days"
	SettingPassScore          = "pass_score"
	SettingPracticeThreshold  = "practice_threshold"
	SettingEnableExam         = "enable_exam"
	SettingEnableRegistration = "enable_registration"
)

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// ExamConfigResponse is the live exam configuration as shown to students.
type ExamConfigResponse struct {
	ExamDuration      int     `json:"examDuration"`
	QuestionCount     int     `json:"questionCount"`
	PracticeThreshold int     `json:"practiceThreshold"`
	PassScore         float64 `json:"passScore"`
	QuestionRangeDays int     `json:"questionRangeDays"`
	EnableExam        bool    `json:"enableExam"`
}
