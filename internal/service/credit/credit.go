package credit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type PortfolioRepository interface {
	List(ctx context.Context) ([]domain.Portfolio, error)
	AddCash(ctx context.Context, portfolioID int64, delta decimal.Decimal) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
}

// CreditService issues periodic stipends: the same CREDIT to every
// portfolio, one ledger entry each, in a single atomic batch.
type CreditService struct {
	portfolioRepo PortfolioRepository
	txRepo        TransactionRepository
	txManager     database.TransactionManagerInterface
	lg            *slog.Logger
}

func NewCreditService(
	portfolioRepo PortfolioRepository,
	txRepo TransactionRepository,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *CreditService {
	return &CreditService{
		portfolioRepo: portfolioRepo,
		txRepo:        txRepo,
		txManager:     txManager,
		lg:            lg,
	}
}

func (s *CreditService) IssueCredit(ctx context.Context, value decimal.Decimal) (int, error) {
	if !value.IsPositive() {
		return 0, fmt.Errorf("%w: credit value must be positive", domain.ErrInvalidInput)
	}

	var credited int
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		portfolios, err := s.portfolioRepo.List(txCtx)
		if err != nil {
			return fmt.Errorf("failed to list portfolios: %w", err)
		}

		for _, portfolio := range portfolios {
			if _, err := s.txRepo.Create(txCtx, domain.Transaction{
				Value:     value,
				Operation: domain.OpCredit,
				Target:    domain.PortfolioTarget(portfolio.ID),
			}); err != nil {
				return fmt.Errorf("failed to record credit for portfolio %d: %w", portfolio.ID, err)
			}
			if err := s.portfolioRepo.AddCash(txCtx, portfolio.ID, value); err != nil {
				return fmt.Errorf("failed to credit portfolio %d: %w", portfolio.ID, err)
			}
		}

		credited = len(portfolios)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.lg.Info("stipend issued", slog.String("value", value.String()), slog.Int("portfolios", credited))
	return credited, nil
}
