package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type InstrumentRepository struct {
	db *database.DB
}

func NewInstrumentRepository(db *database.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

func (r *InstrumentRepository) Create(ctx context.Context, companyID int64, ticker string, price decimal.Decimal) (*domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	var instrument domain.Instrument
	err := conn.QueryRowContext(ctx, `
		INSERT INTO instruments (company_id, ticker, price)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, ticker, price
	`, companyID, ticker, price).Scan(
		&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert instrument: %w", err)
	}

	return &instrument, nil
}

func (r *InstrumentRepository) GetByID(ctx context.Context, instrumentID int64) (*domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	var instrument domain.Instrument
	err := conn.QueryRowContext(ctx, `
		SELECT id, company_id, ticker, price
		FROM instruments
		WHERE id = $1
	`, instrumentID).Scan(&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &instrument, nil
}

// GetByIDForUpdate locks the instrument row so trades and settlements never
// read a price another transaction is about to move.
func (r *InstrumentRepository) GetByIDForUpdate(ctx context.Context, instrumentID int64) (*domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	var instrument domain.Instrument
	err := conn.QueryRowContext(ctx, `
		SELECT id, company_id, ticker, price
		FROM instruments
		WHERE id = $1
		FOR UPDATE
	`, instrumentID).Scan(&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &instrument, nil
}

func (r *InstrumentRepository) GetByCompanyID(ctx context.Context, companyID int64) (*domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	var instrument domain.Instrument
	err := conn.QueryRowContext(ctx, `
		SELECT id, company_id, ticker, price
		FROM instruments
		WHERE company_id = $1
	`, companyID).Scan(&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &instrument, nil
}

func (r *InstrumentRepository) GetByCompanyIDForUpdate(ctx context.Context, companyID int64) (*domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	var instrument domain.Instrument
	err := conn.QueryRowContext(ctx, `
		SELECT id, company_id, ticker, price
		FROM instruments
		WHERE company_id = $1
		FOR UPDATE
	`, companyID).Scan(&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &instrument, nil
}

func (r *InstrumentRepository) List(ctx context.Context) ([]domain.Instrument, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, company_id, ticker, price
		FROM instruments
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []domain.Instrument
	for rows.Next() {
		var instrument domain.Instrument
		if err := rows.Scan(&instrument.ID, &instrument.CompanyID, &instrument.Ticker, &instrument.Price); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, instrument)
	}

	return instruments, rows.Err()
}

func (r *InstrumentRepository) SetPrice(ctx context.Context, instrumentID int64, price decimal.Decimal) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE instruments
		SET price = $1
		WHERE id = $2
	`, price, instrumentID)
	if err != nil {
		return fmt.Errorf("failed to update instrument price: %w", err)
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
