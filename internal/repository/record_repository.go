package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// RecordRepository handles the append-only practice answer log. It also
// serves the two rolling-window queries the eligibility engine is built on.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Save appends one practice attempt.
func (r *RecordRepository) Save(ctx context.Context, rec *model.AnswerRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO records (student_id, question_id, is_correct, student_answer, answer_time)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rec.StudentID, rec.QuestionID, rec.IsCorrect, rec.Answer, rec.AnswerTime,
	).Scan(&rec.ID)
}

// MasteredQuestions returns the ids the student answered correctly at least
// threshold times since the given cutoff (the practice exclusion set).
func (r *RecordRepository) MasteredQuestions(ctx context.Context, studentID string, since time.Time, threshold int) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM records
		 WHERE student_id = $1 AND is_correct AND answer_time > $2
		 GROUP BY question_id
		 HAVING COUNT(*) >= $3`,
		studentID, since, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	excluded := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		excluded[id] = struct{}{}
	}
	return excluded, rows.Err()
}

// DistinctCorrectSince returns the distinct question ids the student answered
// correctly since the given cutoff (the exam eligibility pool).
func (r *RecordRepository) DistinctCorrectSince(ctx context.Context, studentID string, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT question_id FROM records
		 WHERE student_id = $1 AND is_correct AND answer_time >= $2`,
		studentID, since)
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

// QuestionStats counts a student's correct and wrong attempts at one question.
func (r *RecordRepository) QuestionStats(ctx context.Context, studentID, questionID string) (*model.QuestionRecordStats, error) {
	stats := &model.QuestionRecordStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE is_correct),
		   COUNT(*) FILTER (WHERE NOT is_correct)
		 FROM records WHERE student_id = $1 AND question_id = $2`,
		studentID, questionID,
	).Scan(&stats.CorrectCount, &stats.WrongCount)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Totals counts a student's practice attempts and how many were correct.
func (r *RecordRepository) Totals(ctx context.Context, studentID string) (total, correct int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_correct)
		 FROM records WHERE student_id = $1`, studentID,
	).Scan(&total, &correct)
	return total, correct, err
}

// DeleteReferencing is the cascade hook for question deletion: it removes
// every practice record and exam record that references the question id.
func (r *RecordRepository) DeleteReferencing(ctx context.Context, questionID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM records WHERE question_id = $1`, questionID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM exam_records WHERE question_id = $1`, questionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
