package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type RecordRepository struct {
	db *database.DB
}

func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, record domain.Record) (*domain.Record, error) {
	conn := r.db.Conn(ctx)

	created := record
	err := conn.QueryRowContext(ctx, `
		INSERT INTO records (score, claan, task_id, user_id, escrow)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, timestamp, escrow
	`, record.Score, record.Claan, record.TaskID, record.UserID).Scan(
		&created.ID, &created.Timestamp, &created.Escrow,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	return &created, nil
}

// CountForUserTaskSince backs the submission cooldown: how many records this
// user already has against this task since the window start.
func (r *RecordRepository) CountForUserTaskSince(ctx context.Context, userID, taskID int64, since time.Time) (int64, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM records
		WHERE user_id = $1 AND task_id = $2 AND timestamp >= $3
	`, userID, taskID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records for cooldown: %w", err)
	}

	return count, nil
}

// ListEscrowed returns the escrowed records for a claan. Callers inside a
// settlement transaction treat the result as the snapshot to settle; the
// matching ClearEscrow call names these ids explicitly so records submitted
// mid-settlement are left alone.
func (r *RecordRepository) ListEscrowed(ctx context.Context, claan domain.Claan) ([]domain.Record, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, score, timestamp, claan, task_id, user_id, escrow
		FROM records
		WHERE claan = $1 AND escrow
	`, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to query escrowed records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Score, &rec.Timestamp, &rec.Claan, &rec.TaskID, &rec.UserID, &rec.Escrow); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *RecordRepository) ClearEscrow(ctx context.Context, recordIDs []int64) error {
	if len(recordIDs) == 0 {
		return nil
	}

	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE records
		SET escrow = FALSE
		WHERE id = ANY($1) AND escrow
	`, pq.Array(recordIDs))
	if err != nil {
		return fmt.Errorf("failed to clear escrow flags: %w", err)
	}

	return nil
}

func (r *RecordRepository) EscrowTotal(ctx context.Context, claan domain.Claan) (int64, error) {
	conn := r.db.Conn(ctx)

	var total int64
	err := conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(score), 0)
		FROM records
		WHERE claan = $1 AND escrow
	`, claan).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum escrow: %w", err)
	}

	return total, nil
}

func (r *RecordRepository) ScoresSince(ctx context.Context, since time.Time) ([]domain.ClaanScore, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT claan, COALESCE(SUM(score), 0)
		FROM records
		WHERE timestamp >= $1
		GROUP BY claan
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []domain.ClaanScore
	for rows.Next() {
		var s domain.ClaanScore
		if err := rows.Scan(&s.Claan, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}

	return scores, rows.Err()
}

func (r *RecordRepository) ScoreForClaanSince(ctx context.Context, claan domain.Claan, since time.Time) (int64, error) {
	conn := r.db.Conn(ctx)

	var score int64
	err := conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(score), 0)
		FROM records
		WHERE claan = $1 AND timestamp >= $2
	`, claan, since).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("failed to sum claan score: %w", err)
	}

	return score, nil
}

func (r *RecordRepository) CountForClaan(ctx context.Context, claan domain.Claan) (int64, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM records
		JOIN tasks ON tasks.id = records.task_id
		WHERE records.claan = $1
	`, claan).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claan records: %w", err)
	}

	return count, nil
}
