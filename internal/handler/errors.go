package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
)

// failFromService maps a service error onto the response envelope. Unknown
// errors become a 500 without leaking detail.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrPermissionDenied):
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)
	case errors.Is(err, service.ErrFeatureDisabled):
		response.Fail(c, http.StatusForbidden, response.ErrFeatureDisabled)
	case errors.Is(err, service.ErrInsufficientPool):
		response.Fail(c, http.StatusBadRequest, response.ErrInsufficientPool)
	case errors.Is(err, service.ErrExamExpired):
		response.Fail(c, http.StatusGone, response.ErrExamExpired)
	case errors.Is(err, service.ErrAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyAnswered)
	case errors.Is(err, service.ErrExamOngoing):
		response.Fail(c, http.StatusConflict, response.ErrExamOngoing)
	case errors.Is(err, service.ErrEmptyBank):
		response.Fail(c, http.StatusNotFound, response.ErrEmptyBank)
	case errors.Is(err, service.ErrMisconfigured):
		response.Fail(c, http.StatusBadRequest, response.ErrMisconfiguration)
	case errors.Is(err, service.ErrRegistrationClosed):
		response.Fail(c, http.StatusForbidden, response.ErrRegistrationClosed)
	case errors.Is(err, service.ErrNameRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrNameRequired)
	case errors.Is(err, service.ErrIPMismatch):
		response.Fail(c, http.StatusForbidden, response.ErrIPMismatch)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
