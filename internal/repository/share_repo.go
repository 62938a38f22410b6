package repository

import (
	"context"
	"fmt"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type ShareRepository struct {
	db *database.DB
}

func NewShareRepository(db *database.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Issue creates count new unowned IPO shares for the instrument.
func (r *ShareRepository) Issue(ctx context.Context, instrumentID int64, count int) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO shares (instrument_id, ipo)
		SELECT $1, TRUE FROM generate_series(1, $2)
	`, instrumentID, count)
	if err != nil {
		return fmt.Errorf("failed to issue shares: %w", err)
	}

	return nil
}

// DeleteOneUnowned retires a single unowned share of the instrument,
// regardless of its ipo flag. ErrNotFound when every share is owned.
func (r *ShareRepository) DeleteOneUnowned(ctx context.Context, instrumentID int64) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		DELETE FROM shares
		WHERE id = (
			SELECT id FROM shares
			WHERE instrument_id = $1 AND owner_id IS NULL
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
	`, instrumentID)
	if err != nil {
		return fmt.Errorf("failed to delete unowned share: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// FindUnownedPreferIPO picks the share a buyer receives: an IPO share while
// any remain, otherwise a share that came back to the bank on a sale. The
// row is locked so two concurrent buys cannot claim the same share.
func (r *ShareRepository) FindUnownedPreferIPO(ctx context.Context, instrumentID int64) (*domain.Share, error) {
	conn := r.db.Conn(ctx)

	var share domain.Share
	err := conn.QueryRowContext(ctx, `
		SELECT id, instrument_id, owner_id, ipo
		FROM shares
		WHERE instrument_id = $1 AND owner_id IS NULL
		ORDER BY ipo DESC, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, instrumentID).Scan(&share.ID, &share.InstrumentID, &share.OwnerID, &share.IPO)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &share, nil
}

func (r *ShareRepository) FindOwned(ctx context.Context, portfolioID, instrumentID int64) (*domain.Share, error) {
	conn := r.db.Conn(ctx)

	var share domain.Share
	err := conn.QueryRowContext(ctx, `
		SELECT id, instrument_id, owner_id, ipo
		FROM shares
		WHERE instrument_id = $1 AND owner_id = $2
		LIMIT 1
		FOR UPDATE
	`, instrumentID, portfolioID).Scan(&share.ID, &share.InstrumentID, &share.OwnerID, &share.IPO)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &share, nil
}

// AssignOwner gives the share to a portfolio. Buying always takes a share
// out of IPO for good, so the flag is cleared here unconditionally.
func (r *ShareRepository) AssignOwner(ctx context.Context, shareID, portfolioID int64) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE shares
		SET owner_id = $1, ipo = FALSE
		WHERE id = $2
	`, portfolioID, shareID)
	if err != nil {
		return fmt.Errorf("failed to assign share owner: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ReleaseOwner returns the share to the bank. It never restores the ipo
// flag: a sold share stops paying the company permanently.
func (r *ShareRepository) ReleaseOwner(ctx context.Context, shareID int64) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE shares
		SET owner_id = NULL
		WHERE id = $1
	`, shareID)
	if err != nil {
		return fmt.Errorf("failed to release share owner: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ShareRepository) CountOwned(ctx context.Context, portfolioID, instrumentID int64) (int64, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM shares
		WHERE instrument_id = $1 AND owner_id = $2
	`, instrumentID, portfolioID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned shares: %w", err)
	}

	return count, nil
}

func (r *ShareRepository) CountForInstrument(ctx context.Context, instrumentID int64) (int64, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM shares
		WHERE instrument_id = $1
	`, instrumentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count instrument shares: %w", err)
	}

	return count, nil
}

func (r *ShareRepository) CountIPO(ctx context.Context, instrumentID int64) (int64, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM shares
		WHERE instrument_id = $1 AND ipo
	`, instrumentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count IPO shares: %w", err)
	}

	return count, nil
}

// Holders returns each portfolio owning shares of the instrument with its
// aggregate count, for per-portfolio dividend credits.
func (r *ShareRepository) Holders(ctx context.Context, instrumentID int64) ([]domain.Holding, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT owner_id, COUNT(*)
		FROM shares
		WHERE instrument_id = $1 AND owner_id IS NOT NULL
		GROUP BY owner_id
		ORDER BY owner_id
	`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query share holders: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.PortfolioID, &h.Count); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// CountByPortfolioAndInstrument returns every (portfolio, instrument)
// position in one pass, for the claan page holdings grid.
func (r *ShareRepository) CountByPortfolioAndInstrument(ctx context.Context) (map[int64]map[int64]int64, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT owner_id, instrument_id, COUNT(*)
		FROM shares
		WHERE owner_id IS NOT NULL
		GROUP BY owner_id, instrument_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[int64]map[int64]int64)
	for rows.Next() {
		var portfolioID, instrumentID, count int64
		if err := rows.Scan(&portfolioID, &instrumentID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if positions[portfolioID] == nil {
			positions[portfolioID] = make(map[int64]int64)
		}
		positions[portfolioID][instrumentID] = count
	}

	return positions, rows.Err()
}
