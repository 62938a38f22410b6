package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/config"
	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
	"github.com/whompratt/claans/pkg/database"
)

type CompanyRepository interface {
	Create(ctx context.Context, claan domain.Claan) (*domain.Company, error)
	GetByClaan(ctx context.Context, claan domain.Claan) (*domain.Company, error)
}

type InstrumentRepository interface {
	Create(ctx context.Context, companyID int64, ticker string, price decimal.Decimal) (*domain.Instrument, error)
	GetByCompanyID(ctx context.Context, companyID int64) (*domain.Instrument, error)
}

type ShareRepository interface {
	Issue(ctx context.Context, instrumentID int64, count int) error
	CountForInstrument(ctx context.Context, instrumentID int64) (int64, error)
	CountOwned(ctx context.Context, portfolioID, instrumentID int64) (int64, error)
	FindUnownedPreferIPO(ctx context.Context, instrumentID int64) (*domain.Share, error)
	AssignOwner(ctx context.Context, shareID, portfolioID int64) error
}

type PortfolioRepository interface {
	Create(ctx context.Context, userID, companyID int64) (*domain.Portfolio, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Portfolio, error)
}

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
}

// BootstrapService brings the market to its ready state and is safe to run
// repeatedly: every step tops up to the target rather than creating blindly.
type BootstrapService struct {
	companyRepo    CompanyRepository
	instrumentRepo InstrumentRepository
	shareRepo      ShareRepository
	portfolioRepo  PortfolioRepository
	userRepo       UserRepository
	txManager      database.TransactionManagerInterface
	game           config.Game
	lg             *slog.Logger
}

func NewBootstrapService(
	companyRepo CompanyRepository,
	instrumentRepo InstrumentRepository,
	shareRepo ShareRepository,
	portfolioRepo PortfolioRepository,
	userRepo UserRepository,
	txManager database.TransactionManagerInterface,
	game config.Game,
	lg *slog.Logger) *BootstrapService {
	return &BootstrapService{
		companyRepo:    companyRepo,
		instrumentRepo: instrumentRepo,
		shareRepo:      shareRepo,
		portfolioRepo:  portfolioRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		game:           game,
		lg:             lg,
	}
}

// InitMarket creates one company and instrument per claan, tops the share
// pool up to the configured size, opens a portfolio for every user, and
// grants each board member their starting shares.
func (s *BootstrapService) InitMarket(ctx context.Context) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, claan := range domain.Claans() {
			if err := s.initClaan(txCtx, claan); err != nil {
				return fmt.Errorf("failed to init claan %s: %w", claan, err)
			}
		}

		if err := s.initPortfolios(txCtx); err != nil {
			return err
		}

		return s.grantStartingShares(txCtx)
	})
}

func (s *BootstrapService) initClaan(ctx context.Context, claan domain.Claan) error {
	company, err := s.companyRepo.GetByClaan(ctx, claan)
	if errors.Is(err, repository.ErrNotFound) {
		s.lg.Info("creating company", slog.String("claan", string(claan)))
		company, err = s.companyRepo.Create(ctx, claan)
	}
	if err != nil {
		return fmt.Errorf("failed to ensure company: %w", err)
	}

	instrument, err := s.instrumentRepo.GetByCompanyID(ctx, company.ID)
	if errors.Is(err, repository.ErrNotFound) {
		s.lg.Info("creating instrument", slog.String("ticker", claan.Ticker()))
		instrument, err = s.instrumentRepo.Create(ctx, company.ID, claan.Ticker(), s.game.PriceFloor)
	}
	if err != nil {
		return fmt.Errorf("failed to ensure instrument: %w", err)
	}

	count, err := s.shareRepo.CountForInstrument(ctx, instrument.ID)
	if err != nil {
		return fmt.Errorf("failed to count shares: %w", err)
	}
	if missing := s.game.SharePool - int(count); missing > 0 {
		s.lg.Info("topping up share pool",
			slog.String("ticker", instrument.Ticker),
			slog.Int("missing", missing))
		if err := s.shareRepo.Issue(ctx, instrument.ID, missing); err != nil {
			return fmt.Errorf("failed to top up share pool: %w", err)
		}
	}

	return nil
}

func (s *BootstrapService) initPortfolios(ctx context.Context) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		_, err := s.portfolioRepo.GetByUserID(ctx, user.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to get portfolio for user %d: %w", user.ID, err)
		}

		company, err := s.companyRepo.GetByClaan(ctx, user.Claan)
		if err != nil {
			return fmt.Errorf("failed to get company for user %d: %w", user.ID, err)
		}

		s.lg.Info("creating portfolio", slog.Int64("user_id", user.ID))
		if _, err := s.portfolioRepo.Create(ctx, user.ID, company.ID); err != nil {
			return fmt.Errorf("failed to create portfolio for user %d: %w", user.ID, err)
		}
	}

	return nil
}

func (s *BootstrapService) grantStartingShares(ctx context.Context) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		portfolio, err := s.portfolioRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to get portfolio for user %d: %w", user.ID, err)
		}

		instrument, err := s.instrumentRepo.GetByCompanyID(ctx, portfolio.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get instrument for user %d: %w", user.ID, err)
		}

		owned, err := s.shareRepo.CountOwned(ctx, portfolio.ID, instrument.ID)
		if err != nil {
			return fmt.Errorf("failed to count owned shares: %w", err)
		}

		for i := owned; i < int64(s.game.StartingShares); i++ {
			share, err := s.shareRepo.FindUnownedPreferIPO(ctx, instrument.ID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("no shares left to grant to user %d: %w", user.ID, domain.ErrNoInventory)
				}
				return fmt.Errorf("failed to find share to grant: %w", err)
			}

			s.lg.Info("granting starting share", slog.Int64("user_id", user.ID))
			if err := s.shareRepo.AssignOwner(ctx, share.ID, portfolio.ID); err != nil {
				return fmt.Errorf("failed to grant share: %w", err)
			}
		}
	}

	return nil
}
