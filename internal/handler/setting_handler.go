package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
	"github.com/stemsi/ujianku-backend/internal/validator"
)

// SettingHandler handles the admin settings endpoints.
type SettingHandler struct {
	settingsService *service.SettingsService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(settingsService *service.SettingsService) *SettingHandler {
	return &SettingHandler{settingsService: settingsService}
}

// List godoc
// GET /api/admin/settings
// Returns every stored setting row.
func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.settingsService.All(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// Update godoc
// PUT /api/admin/settings
// Bulk-updates settings. The merged configuration is validated before any
// value is written; an inconsistent combination is rejected whole.
func (h *SettingHandler) Update(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.settingsService.Update(c.Request.Context(), req.Settings); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
