package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/ujianku-backend/internal/model"
)

// ErrAlreadyAnswered is returned when an exam question already carries a
// scored answer. Each snapshot row is scored at most once.
var ErrAlreadyAnswered = errors.New("question already answered")

// ExamRepository owns the exams and exam_records tables. Status transitions
// out of in_progress are conditional updates so a terminal exam can never be
// resurrected, no matter how the sweeper and lazy expiry interleave.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `exam_id, student_id, start_time, end_time, submit_time,
	 question_count, current_progress, correct_count, status`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ExamID, &e.StudentID, &e.StartTime, &e.EndTime, &e.SubmitTime,
		&e.QuestionCount, &e.CurrentProgress, &e.CorrectCount, &e.Status)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetOngoing returns the student's in-progress exam, or pgx.ErrNoRows.
func (r *ExamRepository) GetOngoing(ctx context.Context, studentID string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE student_id = $1 AND status = $2`,
		studentID, model.ExamStatusInProgress))
}

// GetByIDForStudent returns an exam only when it belongs to the student.
// Non-owners get pgx.ErrNoRows, indistinguishable from a missing exam.
func (r *ExamRepository) GetByIDForStudent(ctx context.Context, examID, studentID string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID))
}

// GetByID returns an exam regardless of owner (admin bypass).
func (r *ExamRepository) GetByID(ctx context.Context, examID string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE exam_id = $1`, examID))
}

// CreateWithSnapshot inserts the exam row and its question snapshot rows in
// one transaction, so an exam can never exist without its questions.
func (r *ExamRepository) CreateWithSnapshot(ctx context.Context, exam *model.Exam, questionIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO exams (exam_id, student_id, start_time, end_time,
		                    question_count, current_progress, correct_count, status)
		 VALUES ($1, $2, $3, $4, $5, 0, 0, $6)`,
		exam.ExamID, exam.StudentID, exam.StartTime, exam.EndTime,
		exam.QuestionCount, model.ExamStatusInProgress)
	if err != nil {
		return err
	}

	for _, qid := range questionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exam_records (student_id, exam_id, question_id)
			 VALUES ($1, $2, $3)`,
			exam.StudentID, exam.ExamID, qid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// QuestionIDs returns the snapshotted question ids of an exam in insert order.
func (r *ExamRepository) QuestionIDs(ctx context.Context, examID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM exam_records WHERE exam_id = $1 ORDER BY id`, examID)
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

// Records returns the full snapshot rows of an exam in insert order.
func (r *ExamRepository) Records(ctx context.Context, examID string) ([]model.ExamRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, exam_id, question_id, student_answer, is_correct
		 FROM exam_records WHERE exam_id = $1 ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ExamRecord
	for rows.Next() {
		var rec model.ExamRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ExamID, &rec.QuestionID,
			&rec.StudentAnswer, &rec.IsCorrect); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ApplyAnswer records one scored answer inside a transaction: the snapshot
// row is written only while still unanswered (is_correct IS NULL), progress
// and correct_count advance, and the exam completes when the last question
// lands. Returns the exam as it stands after the update.
//
// Errors: pgx.ErrNoRows when the exam is absent, not owned, not in progress,
// or the question is not part of the snapshot; ErrAlreadyAnswered on a
// duplicate submission.
func (r *ExamRepository) ApplyAnswer(ctx context.Context, examID, studentID, questionID string, answer json.RawMessage, isCorrect bool, now time.Time) (*model.Exam, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	exam, err := scanExam(tx.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3
		 FOR UPDATE`,
		examID, studentID, model.ExamStatusInProgress))
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE exam_records
		 SET student_answer = $1, is_correct = $2
		 WHERE exam_id = $3 AND question_id = $4 AND is_correct IS NULL`,
		answer, isCorrect, examID, questionID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Either the question is not in the snapshot, or it was already scored.
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM exam_records WHERE exam_id = $1 AND question_id = $2)`,
			examID, questionID).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrAlreadyAnswered
		}
		return nil, pgx.ErrNoRows
	}

	exam.CurrentProgress++
	if isCorrect {
		exam.CorrectCount++
	}
	if exam.CurrentProgress == exam.QuestionCount {
		exam.Status = model.ExamStatusCompleted
		exam.SubmitTime = &now
	}

	_, err = tx.Exec(ctx,
		`UPDATE exams
		 SET current_progress = $1, correct_count = $2, status = $3, submit_time = $4
		 WHERE exam_id = $5`,
		exam.CurrentProgress, exam.CorrectCount, exam.Status, exam.SubmitTime, examID)
	if err != nil {
		return nil, err
	}

	return exam, tx.Commit(ctx)
}

// ExpireIfInProgress transitions one exam to expired, only if it is still in
// progress. Safe to call from the sweeper and lazy expiry concurrently.
func (r *ExamRepository) ExpireIfInProgress(ctx context.Context, examID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1
		 WHERE exam_id = $2 AND status = $3`,
		model.ExamStatusExpired, examID, model.ExamStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteIfInProgress transitions one exam to completed with a submit time,
// only if it is still in progress (explicit/manual submission).
func (r *ExamRepository) CompleteIfInProgress(ctx context.Context, examID string, submitTime time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, submit_time = $2
		 WHERE exam_id = $3 AND status = $4`,
		model.ExamStatusCompleted, submitTime, examID, model.ExamStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireAllOverdue transitions every overdue in-progress exam to expired in
// one statement. Used by the background sweeper.
func (r *ExamRepository) ExpireAllOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1
		 WHERE status = $2 AND end_time < $3`,
		model.ExamStatusExpired, model.ExamStatusInProgress, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CompleteAllInProgress force-completes every in-progress exam (bulk manual
// submission). Returns how many exams were transitioned.
func (r *ExamRepository) CompleteAllInProgress(ctx context.Context, submitTime time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, submit_time = $2
		 WHERE status = $3`,
		model.ExamStatusCompleted, submitTime, model.ExamStatusInProgress)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// History lists the student's terminal exams, newest first.
func (r *ExamRepository) History(ctx context.Context, studentID string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE student_id = $1 AND status IN ($2, $3)
		 ORDER BY start_time DESC`,
		studentID, model.ExamStatusCompleted, model.ExamStatusExpired)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// CompletedCount counts a student's completed exams.
func (r *ExamRepository) CompletedCount(ctx context.Context, studentID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE student_id = $1 AND status = $2`,
		studentID, model.ExamStatusCompleted).Scan(&n)
	return n, err
}

// LastCompleted returns the student's most recently submitted completed exam,
// or pgx.ErrNoRows.
func (r *ExamRepository) LastCompleted(ctx context.Context, studentID string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE student_id = $1 AND status = $2
		 ORDER BY submit_time DESC LIMIT 1`,
		studentID, model.ExamStatusCompleted))
}

// PassedSince reports whether the student has a completed exam submitted at
// or after the cutoff whose score meets the pass threshold.
func (r *ExamRepository) PassedSince(ctx context.Context, studentID string, since time.Time, passScore float64) (bool, error) {
	var passed bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM exams
		   WHERE student_id = $1 AND status = $2 AND submit_time >= $3
		     AND question_count > 0
		     AND ROUND(correct_count * 1000.0 / question_count) / 10 >= $4
		 )`,
		studentID, model.ExamStatusCompleted, since, passScore).Scan(&passed)
	return passed, err
}
