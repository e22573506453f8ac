package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
	"github.com/stemsi/ujianku-backend/internal/validator"
)

// AdminHandler handles the admin user-management and exam-oversight endpoints.
type AdminHandler struct {
	userService   *service.UserService
	examService   *service.ExamService
	exportService *service.ExportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService *service.UserService, examService *service.ExamService, exportService *service.ExportService) *AdminHandler {
	return &AdminHandler{userService: userService, examService: examService, exportService: exportService}
}

// ListProgress godoc
// GET /api/admin/users
// Returns the roster with per-student practice and exam stats.
func (h *AdminHandler) ListProgress(c *gin.Context) {
	progress, err := h.userService.Progress(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": progress})
}

// GetUser godoc
// GET /api/admin/users/:studentId
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// SetAIPermission godoc
// PUT /api/admin/users/:studentId/permissions/ai
func (h *AdminHandler) SetAIPermission(c *gin.Context) {
	h.setPermission(c, h.userService.SetAIPermission)
}

// SetExamPermission godoc
// PUT /api/admin/users/:studentId/permissions/exam
func (h *AdminHandler) SetExamPermission(c *gin.Context) {
	h.setPermission(c, h.userService.SetExamPermission)
}

func (h *AdminHandler) setPermission(c *gin.Context, apply func(ctx context.Context, studentID string, enable bool) error) {
	var req model.UpdatePermissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := apply(c.Request.Context(), c.Param("studentId"), *req.Enable); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// UnbindIP godoc
// DELETE /api/admin/users/:studentId/binding
// Clears a student's IP binding so they can log in from a new machine today.
func (h *AdminHandler) UnbindIP(c *gin.Context) {
	if err := h.userService.Unbind(c.Request.Context(), c.Param("studentId")); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteUser godoc
// DELETE /api/admin/users/:studentId
// Removes a student and all their data.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("studentId")); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ExportProgress godoc
// GET /api/admin/users/export
// Downloads the roster with per-student stats as an Excel workbook.
func (h *AdminHandler) ExportProgress(c *gin.Context) {
	data, name, err := h.exportService.ProgressWorkbook(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ExamDetail godoc
// GET /api/admin/exams/:examId
// Returns the full review of any exam with the student's identity.
func (h *AdminHandler) ExamDetail(c *gin.Context) {
	detail, err := h.examService.AdminDetail(c.Request.Context(), c.Param("examId"))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// ForceSubmitExam godoc
// POST /api/admin/exams/:examId/submit
// Completes one in-progress exam with its current partial score.
func (h *AdminHandler) ForceSubmitExam(c *gin.Context) {
	if err := h.examService.ForceSubmit(c.Request.Context(), c.Param("examId")); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ForceSubmitAllExams godoc
// POST /api/admin/exams/submit-all
// Completes every in-progress exam.
func (h *AdminHandler) ForceSubmitAllExams(c *gin.Context) {
	n, err := h.examService.ForceSubmitAll(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submitted": n})
}
