package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/ujianku-backend/internal/middleware"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
	"github.com/stemsi/ujianku-backend/internal/validator"
)

// ExamHandler handles the student-facing exam endpoints.
type ExamHandler struct {
	examService     *service.ExamService
	settingsService *service.SettingsService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, settingsService *service.SettingsService) *ExamHandler {
	return &ExamHandler{examService: examService, settingsService: settingsService}
}

// Config godoc
// GET /api/exam/config
// Returns the live exam configuration as shown to students.
func (h *ExamHandler) Config(c *gin.Context) {
	cfg := h.settingsService.Current()
	response.Success(c, http.StatusOK, model.ExamConfigResponse{
		ExamDuration:      cfg.ExamDurationMinutes,
		QuestionCount:     cfg.ExamQuestionCount,
		PracticeThreshold: cfg.PracticeThreshold,
		PassScore:         cfg.PassScore,
		QuestionRangeDays: cfg.QuestionRangeDays,
		EnableExam:        cfg.EnableExam,
	})
}

// Ongoing godoc
// GET /api/exam/ongoing
// Reports whether the student has a running exam, or their pool progress.
func (h *ExamHandler) Ongoing(c *gin.Context) {
	status, err := h.examService.Ongoing(c.Request.Context(), middleware.GetStudentID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// Start godoc
// POST /api/exam/start
// Opens a new exam for the student.
func (h *ExamHandler) Start(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}
	if !user.EnableExam {
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)
		return
	}

	exam, err := h.examService.Start(c.Request.Context(), user.StudentID)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"exam_id":        exam.ExamID,
		"end_time":       exam.EndTime,
		"question_count": exam.QuestionCount,
	})
}

// Questions godoc
// GET /api/exam/:examId/questions
// Returns the snapshot of a running exam to its owner.
func (h *ExamHandler) Questions(c *gin.Context) {
	questions, err := h.examService.Questions(c.Request.Context(), c.Param("examId"), middleware.GetStudentID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// SubmitAnswer godoc
// POST /api/exam/:examId/questions/:questionId/answer
// Scores one exam answer.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.examService.SubmitAnswer(c.Request.Context(),
		c.Param("examId"), middleware.GetStudentID(c), c.Param("questionId"), req.Answer)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Detail godoc
// GET /api/exam/:examId/detail
// Returns the post-exam review of a finished exam.
func (h *ExamHandler) Detail(c *gin.Context) {
	detail, err := h.examService.Detail(c.Request.Context(), c.Param("examId"), middleware.GetStudentID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// History godoc
// GET /api/exam/history
// Lists the student's finished exams, newest first.
func (h *ExamHandler) History(c *gin.Context) {
	history, err := h.examService.History(c.Request.Context(), middleware.GetStudentID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": history})
}
