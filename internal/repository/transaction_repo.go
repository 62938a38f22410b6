package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type TransactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	var portfolioID, companyID *int64
	if id, ok := tx.Target.PortfolioID(); ok {
		portfolioID = &id
	}
	if id, ok := tx.Target.CompanyID(); ok {
		companyID = &id
	}

	conn := r.db.Conn(ctx)

	created := tx
	err := conn.QueryRowContext(ctx, `
		INSERT INTO transactions (value, operation, instrument_id, portfolio_id, company_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp
	`, tx.Value, tx.Operation, tx.InstrumentID, portfolioID, companyID).Scan(&created.ID, &created.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return &created, nil
}

// SoldSince reports whether the portfolio sold this instrument at or after
// the given time. Backs the buy-side fortnight cooldown.
func (r *TransactionRepository) SoldSince(ctx context.Context, portfolioID, instrumentID int64, since time.Time) (bool, error) {
	conn := r.db.Conn(ctx)

	var count int64
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE portfolio_id = $1
		  AND instrument_id = $2
		  AND operation = $3
		  AND timestamp >= $4
	`, portfolioID, instrumentID, domain.OpSell, since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sell cooldown: %w", err)
	}

	return count > 0, nil
}

// SumForCompany totals every transaction targeting the company, which is how
// the portal has always reported treasury funds.
func (r *TransactionRepository) SumForCompany(ctx context.Context, companyID int64) (decimal.Decimal, error) {
	conn := r.db.Conn(ctx)

	var sum decimal.Decimal
	err := conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0)
		FROM transactions
		WHERE company_id = $1
	`, companyID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum company transactions: %w", err)
	}

	return sum, nil
}

func (r *TransactionRepository) ListForPortfolio(ctx context.Context, portfolioID int64) ([]domain.Transaction, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, value, operation, timestamp, instrument_id, portfolio_id, company_id
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY timestamp DESC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type transactionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows transactionRows) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for rows.Next() {
		var (
			tx           domain.Transaction
			portfolioID  *int64
			companyID    *int64
			instrumentID *int64
		)
		if err := rows.Scan(&tx.ID, &tx.Value, &tx.Operation, &tx.Timestamp, &instrumentID, &portfolioID, &companyID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.InstrumentID = instrumentID
		switch {
		case portfolioID != nil:
			tx.Target = domain.PortfolioTarget(*portfolioID)
		case companyID != nil:
			tx.Target = domain.CompanyTarget(*companyID)
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}
