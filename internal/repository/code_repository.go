package repository

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// CodeRepository hands out daily reward codes. Issued codes are recorded in
// the database; the unissued pool is a plain text file maintained by the
// operator, one code per line.
type CodeRepository struct {
	pool *pgxpool.Pool

	fileMu   sync.Mutex
	poolPath string
}

// NewCodeRepository creates a new CodeRepository. poolPath may point at a
// missing file; the pool is then simply empty.
func NewCodeRepository(pool *pgxpool.Pool, poolPath string) *CodeRepository {
	return &CodeRepository{pool: pool, poolPath: poolPath}
}

// GetSince returns the student's code record issued at or after the cutoff,
// or pgx.ErrNoRows.
func (r *CodeRepository) GetSince(ctx context.Context, studentID string, since time.Time) (*model.CodeRecord, error) {
	rec := &model.CodeRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, code, get_time FROM code_records
		 WHERE student_id = $1 AND get_time >= $2
		 ORDER BY get_time LIMIT 1`,
		studentID, since,
	).Scan(&rec.ID, &rec.StudentID, &rec.Code, &rec.GetTime)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Issue pops one code from the pool file and records it for the student.
// Returns ("", nil) when the pool is exhausted.
func (r *CodeRepository) Issue(ctx context.Context, studentID string, now time.Time) (string, error) {
	code, err := r.popCode()
	if err != nil || code == "" {
		return "", err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO code_records (student_id, code, get_time) VALUES ($1, $2, $3)`,
		studentID, code, now)
	if err != nil {
		return "", err
	}
	return code, nil
}

// Remaining counts the unissued codes left in the pool file.
func (r *CodeRepository) Remaining() (int, error) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	f, err := os.Open(r.poolPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	return n, scanner.Err()
}

// popCode removes and returns the first non-empty line of the pool file.
func (r *CodeRepository) popCode() (string, error) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	raw, err := os.ReadFile(r.poolPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	lines := strings.Split(string(raw), "\n")
	code := ""
	rest := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if code == "" && trimmed != "" {
			code = trimmed
			continue
		}
		rest = append(rest, line)
	}
	if code == "" {
		return "", nil
	}

	if err := os.WriteFile(r.poolPath, []byte(strings.Join(rest, "\n")), 0o644); err != nil {
		return "", err
	}
	return code, nil
}
