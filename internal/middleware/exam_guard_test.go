package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type fakeIPDirectory struct {
	students []string
	err      error
}

func (f *fakeIPDirectory) StudentsBoundTo(context.Context, string) ([]string, error) {
	return f.students, f.err
}

type fakeActiveExams struct {
	active map[string]bool
	err    error
}

func (f *fakeActiveExams) HasActiveExam(_ context.Context, studentID string) (bool, error) {
	return f.active[studentID], f.err
}

func newGuardedRouter(students *fakeIPDirectory, exams *fakeActiveExams) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ExamGuard(students, exams, nil, zerolog.Nop()))
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/api/practice/question", ok)
	r.GET("/api/exam/ongoing", ok)
	r.GET("/health", ok)
	return r
}

func guardGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.9:4312"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExamGuardLocksSiblingAccounts(t *testing.T) {
	students := &fakeIPDirectory{students: []string{"sibling", "taker"}}
	exams := &fakeActiveExams{active: map[string]bool{"taker": true}}
	r := newGuardedRouter(students, exams)

	rec := guardGet(t, r, "/api/practice/question")
	if rec.Code != http.StatusFound {
		t.Fatalf("guarded path returned %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/exam" {
		t.Fatalf("redirected to %q, want /exam", loc)
	}
}

func TestExamGuardPassesWhenNoActiveExam(t *testing.T) {
	students := &fakeIPDirectory{students: []string{"a", "b"}}
	exams := &fakeActiveExams{}
	r := newGuardedRouter(students, exams)

	if rec := guardGet(t, r, "/api/practice/question"); rec.Code != http.StatusNoContent {
		t.Fatalf("unlocked machine got %d, want 204", rec.Code)
	}
}

func TestExamGuardSkipsAllowedPrefixes(t *testing.T) {
	students := &fakeIPDirectory{students: []string{"taker"}}
	exams := &fakeActiveExams{active: map[string]bool{"taker": true}}
	r := newGuardedRouter(students, exams)

	for _, path := range []string{"/api/exam/ongoing", "/health"} {
		if rec := guardGet(t, r, path); rec.Code != http.StatusNoContent {
			t.Fatalf("allow-listed %s got %d, want 204", path, rec.Code)
		}
	}
}

func TestExamGuardFailsOpen(t *testing.T) {
	students := &fakeIPDirectory{err: errors.New("db down")}
	r := newGuardedRouter(students, &fakeActiveExams{})

	if rec := guardGet(t, r, "/api/practice/question"); rec.Code != http.StatusNoContent {
		t.Fatalf("lookup error must fail open, got %d", rec.Code)
	}

	students = &fakeIPDirectory{students: []string{"taker"}}
	exams := &fakeActiveExams{err: errors.New("db down")}
	r = newGuardedRouter(students, exams)

	if rec := guardGet(t, r, "/api/practice/question"); rec.Code != http.StatusNoContent {
		t.Fatalf("exam lookup error must fail open, got %d", rec.Code)
	}
}
