package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/ujianku-backend/internal/model"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
)

const (
	// ContextKeyStudentID is the Gin context key for the authenticated student.
	ContextKeyStudentID = "studentID"
	// ContextKeyUser is the Gin context key for the authenticated user record.
	ContextKeyUser = "user"
	// ContextKeyAdmin is the Gin context key for the admin claims.
	ContextKeyAdmin = "adminClaims"

	// StudentCookie carries the student identity between requests.
	StudentCookie = "studentId"
)

// RequireStudent authenticates a student from the identity cookie and
// enforces the IP binding on every request.
func RequireStudent(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		studentID, err := c.Cookie(StudentCookie)
		if err != nil || studentID == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
			return
		}

		user, err := users.VerifyIP(c.Request.Context(), studentID, c.ClientIP())
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				response.AbortFail(c, http.StatusUnauthorized, response.ErrNotLoggedIn)
			case errors.Is(err, service.ErrIPMismatch):
				response.AbortFail(c, http.StatusForbidden, response.ErrIPMismatch)
			default:
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			}
			return
		}

		c.Set(ContextKeyStudentID, studentID)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// RequireAdminJWT validates an admin JWT from the Authorization header and
// checks the token against the active session.
func RequireAdminJWT(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		claims, err := auth.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if err := auth.ValidateSession(c.Request.Context(), claims.Username, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Set(ContextKeyAdmin, claims)
		c.Next()
	}
}

// GetStudentID retrieves the authenticated student id from the Gin context.
func GetStudentID(c *gin.Context) string {
	return c.GetString(ContextKeyStudentID)
}

// GetUser retrieves the authenticated user record from the Gin context.
func GetUser(c *gin.Context) *model.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := val.(*model.User)
	if !ok {
		return nil
	}
	return user
}
