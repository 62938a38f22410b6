package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type PortfolioRepository struct {
	db *database.DB
}

func NewPortfolioRepository(db *database.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) Create(ctx context.Context, userID, companyID int64) (*domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	var portfolio domain.Portfolio
	err := conn.QueryRowContext(ctx, `
		INSERT INTO portfolios (user_id, company_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, user_id, company_id, cash, board_vote
	`, userID, companyID).Scan(
		&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote,
	)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &portfolio, nil
}

func (r *PortfolioRepository) GetByID(ctx context.Context, portfolioID int64) (*domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	var portfolio domain.Portfolio
	err := conn.QueryRowContext(ctx, `
		SELECT id, user_id, company_id, cash, board_vote
		FROM portfolios
		WHERE id = $1
	`, portfolioID).Scan(&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &portfolio, nil
}

// GetByIDForUpdate locks the portfolio row so concurrent trades cannot both
// spend the same cash.
func (r *PortfolioRepository) GetByIDForUpdate(ctx context.Context, portfolioID int64) (*domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	var portfolio domain.Portfolio
	err := conn.QueryRowContext(ctx, `
		SELECT id, user_id, company_id, cash, board_vote
		FROM portfolios
		WHERE id = $1
		FOR UPDATE
	`, portfolioID).Scan(&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &portfolio, nil
}

func (r *PortfolioRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	var portfolio domain.Portfolio
	err := conn.QueryRowContext(ctx, `
		SELECT id, user_id, company_id, cash, board_vote
		FROM portfolios
		WHERE user_id = $1
	`, userID).Scan(&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &portfolio, nil
}

func (r *PortfolioRepository) List(ctx context.Context) ([]domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, user_id, company_id, cash, board_vote
		FROM portfolios
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var portfolio domain.Portfolio
		if err := rows.Scan(&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, portfolio)
	}

	return portfolios, rows.Err()
}

func (r *PortfolioRepository) ListByCompany(ctx context.Context, companyID int64) ([]domain.Portfolio, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, user_id, company_id, cash, board_vote
		FROM portfolios
		WHERE company_id = $1
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query company portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var portfolio domain.Portfolio
		if err := rows.Scan(&portfolio.ID, &portfolio.UserID, &portfolio.CompanyID, &portfolio.Cash, &portfolio.BoardVote); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, portfolio)
	}

	return portfolios, rows.Err()
}

// VoteTally groups the company's board by current vote.
func (r *PortfolioRepository) VoteTally(ctx context.Context, companyID int64) (map[domain.BoardVote]int, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT board_vote, COUNT(*)
		FROM portfolios
		WHERE company_id = $1
		GROUP BY board_vote
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	tally := map[domain.BoardVote]int{
		domain.VoteAbstain:  0,
		domain.VoteWithhold: 0,
		domain.VotePayout:   0,
	}
	for rows.Next() {
		var vote domain.BoardVote
		var count int
		if err := rows.Scan(&vote, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote tally: %w", err)
		}
		tally[vote] = count
	}

	return tally, rows.Err()
}

func (r *PortfolioRepository) SetVote(ctx context.Context, portfolioID int64, vote domain.BoardVote) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE portfolios
		SET board_vote = $1
		WHERE id = $2
	`, vote, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to update board vote: %w", err)
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

func (r *PortfolioRepository) AddCash(ctx context.Context, portfolioID int64, delta decimal.Decimal) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, `
		UPDATE portfolios
		SET cash = cash + $1
		WHERE id = $2
	`, delta, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio cash: %w", err)
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
