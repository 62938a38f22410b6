package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type CompanyRepository struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, claan domain.Claan) (*domain.Company, error) {
	conn := r.db.Conn(ctx)

	var company domain.Company
	err := conn.QueryRowContext(ctx, `
		INSERT INTO companies (claan)
		VALUES ($1)
		ON CONFLICT (claan) DO NOTHING
		RETURNING id, claan, cash
	`, claan).Scan(&company.ID, &company.Claan, &company.Cash)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &company, nil
}

func (r *CompanyRepository) GetByClaan(ctx context.Context, claan domain.Claan) (*domain.Company, error) {
	conn := r.db.Conn(ctx)

	var company domain.Company
	err := conn.QueryRowContext(ctx, `
		SELECT id, claan, cash
		FROM companies
		WHERE claan = $1
	`, claan).Scan(&company.ID, &company.Claan, &company.Cash)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &company, nil
}

// GetByClaanForUpdate locks the company row for the duration of the ambient
// transaction, serialising treasury updates against concurrent settlements.
func (r *CompanyRepository) GetByClaanForUpdate(ctx context.Context, claan domain.Claan) (*domain.Company, error) {
	conn := r.db.Conn(ctx)

	var company domain.Company
	err := conn.QueryRowContext(ctx, `
		SELECT id, claan, cash
		FROM companies
		WHERE claan = $1
		FOR UPDATE
	`, claan).Scan(&company.ID, &company.Claan, &company.Cash)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &company, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]domain.Company, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, claan, cash
		FROM companies
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(&company.ID, &company.Claan, &company.Cash); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}

	return companies, rows.Err()
}

func (r *CompanyRepository) AddCash(ctx context.Context, companyID int64, delta decimal.Decimal) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE companies
		SET cash = cash + $1
		WHERE id = $2
	`, delta, companyID)
	if err != nil {
		return fmt.Errorf("failed to update company cash: %w", err)
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
