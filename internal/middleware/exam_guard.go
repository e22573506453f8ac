package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/config"
)

// IPDirectory lists the students whose session is bound to an IP today.
// Satisfied by service.UserService.
type IPDirectory interface {
	StudentsBoundTo(ctx context.Context, ip string) ([]string, error)
}

// ActiveExamSource reports whether a student has a running exam. Satisfied
// by service.ExamService.
type ActiveExamSource interface {
	HasActiveExam(ctx context.Context, studentID string) (bool, error)
}

// examGuardAllowPrefixes are the paths a locked machine may still reach: the
// exam surface itself, login, static assets and health.
var examGuardAllowPrefixes = []string{
	"/login",
	"/static",
	"/exam",
	"/api/exam",
	"/api/user",
	"/api/auth",
	"/health",
}

// examGuardCacheTTL bounds how stale a cached verdict can be. Short on
// purpose: a freshly started exam must lock the machine within seconds.
const examGuardCacheTTL = 3 * time.Second

// ExamGuard locks a machine into the exam surface while any student bound to
// its IP today has a running exam. Every account sharing the IP is affected,
// not just the one taking the exam. Verdicts are cached per IP in Redis so
// the guard does not hit Postgres on every asset request; a nil client
// disables the cache.
func ExamGuard(students IPDirectory, exams ActiveExamSource, rdb *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	guardLog := log.With().Str("component", "exam_guard").Logger()

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range examGuardAllowPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		locked, err := ipHasActiveExam(c.Request.Context(), c.ClientIP(), students, exams, rdb)
		if err != nil {
			// Fail open: a broken guard must not take the whole site down.
			guardLog.Error().Err(err).Str("ip", c.ClientIP()).Msg("Exam guard check failed")
			c.Next()
			return
		}
		if locked {
			c.Redirect(http.StatusFound, "/exam")
			c.Abort()
			return
		}
		c.Next()
	}
}

func ipHasActiveExam(ctx context.Context, ip string, students IPDirectory, exams ActiveExamSource, rdb *redis.Client) (bool, error) {
	cacheKey := config.CacheKey.IPOngoingExamKey(ip)
	if rdb != nil {
		if cached, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			return cached == "1", nil
		}
	}

	bound, err := students.StudentsBoundTo(ctx, ip)
	if err != nil {
		return false, err
	}

	locked := false
	for _, studentID := range bound {
		active, err := exams.HasActiveExam(ctx, studentID)
		if err != nil {
			return false, err
		}
		if active {
			locked = true
			break
		}
	}

	if rdb != nil {
		verdict := "0"
		if locked {
			verdict = "1"
		}
		// Cache write failures are ignored; the verdict is already computed.
		rdb.Set(ctx, cacheKey, verdict, examGuardCacheTTL)
	}

	return locked, nil
}
