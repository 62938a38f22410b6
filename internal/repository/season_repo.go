package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/whompratt/claans/pkg/database"
)

type SeasonRepository struct {
	db *database.DB
}

func NewSeasonRepository(db *database.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// LatestStart returns the start date of the most recent season.
// ErrNotFound when no season has been configured yet.
func (r *SeasonRepository) LatestStart(ctx context.Context) (time.Time, error) {
	conn := r.db.Conn(ctx)

	var start sql.NullTime
	err := conn.QueryRowContext(ctx, "SELECT MAX(start_date) FROM seasons").Scan(&start)
	if err != nil {
		return time.Time{}, HandleNoRowsError(err)
	}
	if !start.Valid {
		return time.Time{}, ErrNotFound
	}

	return start.Time, nil
}

func (r *SeasonRepository) Create(ctx context.Context, name string, start time.Time) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO seasons (name, start_date)
		VALUES ($1, $2)
	`, name, start)
	if err != nil {
		return fmt.Errorf("failed to insert season: %w", err)
	}

	return nil
}
