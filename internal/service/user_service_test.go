package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/model"
)

type fakeUserStore struct {
	users map[string]*model.User
	now   func() time.Time
}

func newFakeUserStore(now func() time.Time) *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User), now: now}
}

func (f *fakeUserStore) GetByID(_ context.Context, studentID string) (*model.User, error) {
	u, ok := f.users[studentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpsertBinding(_ context.Context, studentID, name, ip string) error {
	now := f.now()
	u, ok := f.users[studentID]
	if !ok {
		u = &model.User{StudentID: studentID, EnableExam: true}
		f.users[studentID] = u
	}
	u.Name = name
	u.BoundIP = &ip
	u.BoundTime = &now
	return nil
}

func (f *fakeUserStore) BoundToIP(_ context.Context, ip string, dayStart time.Time) ([]string, error) {
	var ids []string
	for _, u := range f.users {
		if u.BoundIP != nil && *u.BoundIP == ip && u.BoundTime != nil && !u.BoundTime.Before(dayStart) {
			ids = append(ids, u.StudentID)
		}
	}
	return ids, nil
}

func (f *fakeUserStore) UnbindIP(_ context.Context, studentID string) (bool, error) {
	u, ok := f.users[studentID]
	if !ok {
		return false, nil
	}
	u.BoundIP = nil
	u.BoundTime = nil
	return true, nil
}

func (f *fakeUserStore) SetPermission(_ context.Context, studentID, column string, enable bool) (bool, error) {
	u, ok := f.users[studentID]
	if !ok {
		return false, nil
	}
	switch column {
	case "enable_ai":
		u.EnableAI = enable
	case "enable_exam":
		u.EnableExam = enable
	}
	return true, nil
}

func (f *fakeUserStore) List(context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) Delete(_ context.Context, studentID string) (bool, error) {
	if _, ok := f.users[studentID]; !ok {
		return false, nil
	}
	delete(f.users, studentID)
	return true, nil
}

type fakeStatsRecords struct {
	total, correct int
}

func (f *fakeStatsRecords) Totals(context.Context, string) (int, int, error) {
	return f.total, f.correct, nil
}

type fakeExamStats struct {
	completed int
	last      *model.Exam
	passed    bool
}

func (f *fakeExamStats) CompletedCount(context.Context, string) (int, error) {
	return f.completed, nil
}

func (f *fakeExamStats) LastCompleted(context.Context, string) (*model.Exam, error) {
	if f.last == nil {
		return nil, pgx.ErrNoRows
	}
	return f.last, nil
}

func (f *fakeExamStats) PassedSince(context.Context, string, time.Time, float64) (bool, error) {
	return f.passed, nil
}

type fakeCodeStore struct {
	issued map[string]*model.CodeRecord
	pool   []string
}

func (f *fakeCodeStore) GetSince(_ context.Context, studentID string, since time.Time) (*model.CodeRecord, error) {
	rec, ok := f.issued[studentID]
	if !ok || rec.GetTime.Before(since) {
		return nil, pgx.ErrNoRows
	}
	return rec, nil
}

func (f *fakeCodeStore) Issue(_ context.Context, studentID string, now time.Time) (string, error) {
	if len(f.pool) == 0 {
		return "", nil
	}
	code := f.pool[0]
	f.pool = f.pool[1:]
	if f.issued == nil {
		f.issued = make(map[string]*model.CodeRecord)
	}
	f.issued[studentID] = &model.CodeRecord{StudentID: studentID, Code: code, GetTime: now}
	return code, nil
}

type userServiceFixture struct {
	svc     *UserService
	users   *fakeUserStore
	records *fakeStatsRecords
	exams   *fakeExamStats
	codes   *fakeCodeStore
	setNow  func(time.Time)
}

func newUserServiceFixture(t *testing.T, overrides map[string]string) *userServiceFixture {
	t.Helper()
	current := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	users := newFakeUserStore(now)
	records := &fakeStatsRecords{}
	exams := &fakeExamStats{}
	codes := &fakeCodeStore{pool: []string{"KODE-1", "KODE-2"}}

	svc := NewUserService(users, records, exams, codes, testSettings(t, overrides), zerolog.Nop())
	svc.now = now

	return &userServiceFixture{
		svc: svc, users: users, records: records, exams: exams, codes: codes,
		setNow: func(tm time.Time) { current = tm },
	}
}

func TestLoginRegistersNewStudent(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	user, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Name != "Budi" || user.BoundIP == nil || *user.BoundIP != "10.0.0.5" {
		t.Fatalf("unexpected user after registration: %+v", user)
	}
}

func TestLoginRequiresNameForNewStudent(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	if _, err := fx.svc.Login(context.Background(), "2024001", "", "10.0.0.5"); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestLoginRespectsRegistrationFlag(t *testing.T) {
	fx := newUserServiceFixture(t, map[string]string{"enable_registration": "false"})

	if _, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5"); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestLoginRejectsDifferentIPSameDay(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	if _, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := fx.svc.Login(context.Background(), "2024001", "", "10.0.0.9"); !errors.Is(err, ErrIPMismatch) {
		t.Fatalf("expected ErrIPMismatch, got %v", err)
	}
}

func TestLoginRebindsNextDay(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	if _, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5"); err != nil {
		t.Fatalf("first login: %v", err)
	}

	fx.setNow(time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC))
	user, err := fx.svc.Login(context.Background(), "2024001", "", "10.0.0.9")
	if err != nil {
		t.Fatalf("next-day login: %v", err)
	}
	if *user.BoundIP != "10.0.0.9" {
		t.Fatalf("bound ip %s, want 10.0.0.9", *user.BoundIP)
	}
	if user.Name != "Budi" {
		t.Fatalf("name %s, want kept from registration", user.Name)
	}
}

func TestVerifyIPEnforcesBinding(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	if _, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := fx.svc.VerifyIP(context.Background(), "2024001", "10.0.0.5"); err != nil {
		t.Fatalf("same ip: %v", err)
	}
	if _, err := fx.svc.VerifyIP(context.Background(), "2024001", "10.0.0.9"); !errors.Is(err, ErrIPMismatch) {
		t.Fatalf("expected ErrIPMismatch, got %v", err)
	}

	// A stale binding is refreshed instead of rejected.
	fx.setNow(time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC))
	user, err := fx.svc.VerifyIP(context.Background(), "2024001", "10.0.0.9")
	if err != nil {
		t.Fatalf("stale binding: %v", err)
	}
	if *user.BoundIP != "10.0.0.9" {
		t.Fatalf("bound ip %s, want refreshed to 10.0.0.9", *user.BoundIP)
	}
}

func TestStatsIssuesCodeOncePerDay(t *testing.T) {
	fx := newUserServiceFixture(t, nil)
	fx.records.total = 20
	fx.records.correct = 15
	fx.exams.passed = true

	stats, err := fx.svc.Stats(context.Background(), "2024001")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalQuestions != 20 || stats.CorrectRate != 75.0 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.TodayCode == nil || *stats.TodayCode != "KODE-1" {
		t.Fatalf("expected KODE-1, got %v", stats.TodayCode)
	}

	// Second read returns the same code, not a new one.
	stats, err = fx.svc.Stats(context.Background(), "2024001")
	if err != nil {
		t.Fatalf("second Stats: %v", err)
	}
	if stats.TodayCode == nil || *stats.TodayCode != "KODE-1" {
		t.Fatalf("expected KODE-1 again, got %v", stats.TodayCode)
	}
	if len(fx.codes.pool) != 1 {
		t.Fatalf("pool size %d, want 1 remaining", len(fx.codes.pool))
	}
}

func TestStatsNoCodeWithoutPass(t *testing.T) {
	fx := newUserServiceFixture(t, nil)
	fx.records.total = 5
	fx.records.correct = 1

	stats, err := fx.svc.Stats(context.Background(), "2024001")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TodayCode != nil {
		t.Fatalf("expected no code, got %v", *stats.TodayCode)
	}
}

func TestStudentsBoundToScopesByDay(t *testing.T) {
	fx := newUserServiceFixture(t, nil)

	if _, err := fx.svc.Login(context.Background(), "2024001", "Budi", "10.0.0.5"); err != nil {
		t.Fatalf("login: %v", err)
	}

	ids, err := fx.svc.StudentsBoundTo(context.Background(), "10.0.0.5")
	if err != nil {
		t.Fatalf("StudentsBoundTo: %v", err)
	}
	if len(ids) != 1 || ids[0] != "2024001" {
		t.Fatalf("bound students %v, want [2024001]", ids)
	}

	// Yesterday's binding does not lock today's machine.
	fx.setNow(time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC))
	ids, err = fx.svc.StudentsBoundTo(context.Background(), "10.0.0.5")
	if err != nil {
		t.Fatalf("next-day StudentsBoundTo: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("bound students %v, want none", ids)
	}
}
