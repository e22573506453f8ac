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

// PracticeHandler handles the practice loop endpoints.
type PracticeHandler struct {
	practiceService *service.PracticeService
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService}
}

// NextQuestion godoc
// GET /api/practice/question
// Draws a random unmastered question for the student.
func (h *PracticeHandler) NextQuestion(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}

	question, err := h.practiceService.NextQuestion(c.Request.Context(), user.StudentID, user.EnableAI)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Stats godoc
// GET /api/practice/stats
// Reports how much of the bank the student can still practice.
func (h *PracticeHandler) Stats(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}

	stats, err := h.practiceService.Stats(c.Request.Context(), user.StudentID, user.EnableAI)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// SubmitAnswer godoc
// POST /api/practice/answer
// Scores a practice answer and logs the attempt.
func (h *PracticeHandler) SubmitAnswer(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.practiceService.SubmitAnswer(c.Request.Context(), middleware.GetStudentID(c), req.QuestionID, req.Answer)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
