package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// UserRepository handles student identity and IP-binding data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user. Returns pgx.ErrNoRows when the student is unknown.
func (r *UserRepository) GetByID(ctx context.Context, studentID string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, name, bound_ip, bound_time, enable_ai, enable_exam
		 FROM users WHERE student_id = $1`, studentID,
	).Scan(&u.StudentID, &u.Name, &u.BoundIP, &u.BoundTime, &u.EnableAI, &u.EnableExam)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertBinding creates the user if needed and (re)binds the IP for today.
func (r *UserRepository) UpsertBinding(ctx context.Context, studentID, name, ip string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (student_id, name, bound_ip, bound_time)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (student_id)
		 DO UPDATE SET name = EXCLUDED.name, bound_ip = EXCLUDED.bound_ip, bound_time = NOW()`,
		studentID, name, ip)
	return err
}

// BoundToIP lists the student ids whose binding points at ip and was made
// today (local calendar day).
func (r *UserRepository) BoundToIP(ctx context.Context, ip string, dayStart time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM users WHERE bound_ip = $1 AND bound_time >= $2`,
		ip, dayStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnbindIP clears a user's IP binding. Returns false when the user is unknown.
func (r *UserRepository) UnbindIP(ctx context.Context, studentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET bound_ip = NULL, bound_time = NULL WHERE student_id = $1`,
		studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetPermission toggles one of the per-user feature flags. The column name is
// fixed by the callers (enable_ai or enable_exam), never user input.
func (r *UserRepository) SetPermission(ctx context.Context, studentID, column string, enable bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET `+column+` = $1 WHERE student_id = $2`,
		enable, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns all users ordered by most recent binding first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, name, bound_ip, bound_time, enable_ai, enable_exam
		 FROM users ORDER BY bound_time DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.StudentID, &u.Name, &u.BoundIP, &u.BoundTime, &u.EnableAI, &u.EnableExam); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes a user and every row referencing them, in one transaction.
func (r *UserRepository) Delete(ctx context.Context, studentID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// Order matters: children first.
	for _, stmt := range []string{
		`DELETE FROM records WHERE student_id = $1`,
		`DELETE FROM code_records WHERE student_id = $1`,
		`DELETE FROM exam_records WHERE student_id = $1`,
		`DELETE FROM exams WHERE student_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, studentID); err != nil {
			return false, err
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE student_id = $1`, studentID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	return true, tx.Commit(ctx)
}
