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

// cookieMaxAge keeps the student identity for a school day.
const cookieMaxAge = 12 * 60 * 60

// AuthHandler handles student and admin authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// StudentLogin godoc
// POST /api/auth/login
// Registers or re-binds a student and sets the identity cookie.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.StudentID, req.Name, c.ClientIP())
	if err != nil {
		failFromService(c, err)
		return
	}

	c.SetCookie(middleware.StudentCookie, user.StudentID, cookieMaxAge, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// StudentLogout godoc
// POST /api/auth/logout
// Clears the student identity cookie.
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	c.SetCookie(middleware.StudentCookie, "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/auth/me
// Returns the authenticated student's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// AdminLogin godoc
// POST /api/auth/admin/login
// Verifies admin credentials and issues a JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": token})
}

// AdminLogout godoc
// POST /api/auth/admin/logout
// Invalidates the active admin session.
func (h *AuthHandler) AdminLogout(c *gin.Context) {
	claims := adminClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims.Username); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func adminClaims(c *gin.Context) *service.AdminClaims {
	val, exists := c.Get(middleware.ContextKeyAdmin)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}
