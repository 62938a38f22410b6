package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/whompratt/claans/internal/config"
	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
	"github.com/whompratt/claans/pkg/database"
)

type PortfolioRepository interface {
	GetByID(ctx context.Context, portfolioID int64) (*domain.Portfolio, error)
	GetByIDForUpdate(ctx context.Context, portfolioID int64) (*domain.Portfolio, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Portfolio, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Portfolio, error)
	SetVote(ctx context.Context, portfolioID int64, vote domain.BoardVote) error
	AddCash(ctx context.Context, portfolioID int64, delta decimal.Decimal) error
}

type InstrumentRepository interface {
	GetByID(ctx context.Context, instrumentID int64) (*domain.Instrument, error)
	GetByIDForUpdate(ctx context.Context, instrumentID int64) (*domain.Instrument, error)
	GetByCompanyID(ctx context.Context, companyID int64) (*domain.Instrument, error)
	List(ctx context.Context) ([]domain.Instrument, error)
	SetPrice(ctx context.Context, instrumentID int64, price decimal.Decimal) error
}

type ShareRepository interface {
	Issue(ctx context.Context, instrumentID int64, count int) error
	DeleteOneUnowned(ctx context.Context, instrumentID int64) error
	FindUnownedPreferIPO(ctx context.Context, instrumentID int64) (*domain.Share, error)
	FindOwned(ctx context.Context, portfolioID, instrumentID int64) (*domain.Share, error)
	AssignOwner(ctx context.Context, shareID, portfolioID int64) error
	ReleaseOwner(ctx context.Context, shareID int64) error
	CountOwned(ctx context.Context, portfolioID, instrumentID int64) (int64, error)
	CountByPortfolioAndInstrument(ctx context.Context) (map[int64]map[int64]int64, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	SoldSince(ctx context.Context, portfolioID, instrumentID int64, since time.Time) (bool, error)
	SumForCompany(ctx context.Context, companyID int64) (decimal.Decimal, error)
	ListForPortfolio(ctx context.Context, portfolioID int64) ([]domain.Transaction, error)
}

type CompanyRepository interface {
	GetByClaan(ctx context.Context, claan domain.Claan) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
}

type RecordRepository interface {
	EscrowTotal(ctx context.Context, claan domain.Claan) (int64, error)
	CountForClaan(ctx context.Context, claan domain.Claan) (int64, error)
}

// FortnightSource supplies the start of the current settlement period.
type FortnightSource interface {
	FortnightStart(ctx context.Context) (time.Time, error)
}

type MarketService struct {
	portfolioRepo  PortfolioRepository
	instrumentRepo InstrumentRepository
	shareRepo      ShareRepository
	txRepo         TransactionRepository
	companyRepo    CompanyRepository
	recordRepo     RecordRepository
	fortnights     FortnightSource
	txManager      database.TransactionManagerInterface
	game           config.Game
	lg             *slog.Logger
}

func NewMarketService(
	portfolioRepo PortfolioRepository,
	instrumentRepo InstrumentRepository,
	shareRepo ShareRepository,
	txRepo TransactionRepository,
	companyRepo CompanyRepository,
	recordRepo RecordRepository,
	fortnights FortnightSource,
	txManager database.TransactionManagerInterface,
	game config.Game,
	lg *slog.Logger) *MarketService {
	return &MarketService{
		portfolioRepo:  portfolioRepo,
		instrumentRepo: instrumentRepo,
		shareRepo:      shareRepo,
		txRepo:         txRepo,
		companyRepo:    companyRepo,
		recordRepo:     recordRepo,
		fortnights:     fortnights,
		txManager:      txManager,
		game:           game,
		lg:             lg,
	}
}

// BuyShare purchases one share of the instrument for the portfolio.
// Preconditions are checked in a fixed order and the first failure wins:
// fortnight sell cooldown, ownership cap, affordability, inventory.
// A buy never moves the price.
func (s *MarketService) BuyShare(ctx context.Context, portfolioID, instrumentID int64) error {
	fortnightStart, err := s.fortnights.FortnightStart(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve fortnight start: %w", err)
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		portfolio, err := s.portfolioRepo.GetByIDForUpdate(txCtx, portfolioID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrPortfolioNotFound
			}
			return fmt.Errorf("failed to get portfolio: %w", err)
		}

		instrument, err := s.instrumentRepo.GetByIDForUpdate(txCtx, instrumentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInstrumentNotFound
			}
			return fmt.Errorf("failed to get instrument: %w", err)
		}

		sold, err := s.txRepo.SoldSince(txCtx, portfolio.ID, instrument.ID, fortnightStart)
		if err != nil {
			return fmt.Errorf("failed to check sell cooldown: %w", err)
		}
		if sold {
			return domain.ErrSellCooldown
		}

		owned, err := s.shareRepo.CountOwned(txCtx, portfolio.ID, instrument.ID)
		if err != nil {
			return fmt.Errorf("failed to count owned shares: %w", err)
		}
		if owned >= int64(s.game.OwnershipCap) {
			return domain.ErrOwnershipCap
		}

		if portfolio.Cash.LessThan(instrument.Price) {
			return domain.ErrInsufficientFunds
		}

		share, err := s.shareRepo.FindUnownedPreferIPO(txCtx, instrument.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrNoInventory
			}
			return fmt.Errorf("failed to find share for sale: %w", err)
		}

		if _, err := s.txRepo.Create(txCtx, domain.Transaction{
			Value:        instrument.Price,
			Operation:    domain.OpBuy,
			InstrumentID: &instrument.ID,
			Target:       domain.PortfolioTarget(portfolio.ID),
		}); err != nil {
			return fmt.Errorf("failed to record buy transaction: %w", err)
		}

		if err := s.shareRepo.AssignOwner(txCtx, share.ID, portfolio.ID); err != nil {
			return fmt.Errorf("failed to assign share: %w", err)
		}

		if err := s.portfolioRepo.AddCash(txCtx, portfolio.ID, instrument.Price.Neg()); err != nil {
			return fmt.Errorf("failed to debit portfolio: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("share bought",
		slog.Int64("portfolio_id", portfolioID),
		slog.Int64("instrument_id", instrumentID))
	return nil
}

// SellShare sells one share of the instrument from the portfolio at the
// current price, then nudges the price down by the sale decrement, clamped
// at the floor. The sold share returns to the bank but never regains IPO
// status.
func (s *MarketService) SellShare(ctx context.Context, portfolioID, instrumentID int64) error {
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		portfolio, err := s.portfolioRepo.GetByIDForUpdate(txCtx, portfolioID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrPortfolioNotFound
			}
			return fmt.Errorf("failed to get portfolio: %w", err)
		}

		instrument, err := s.instrumentRepo.GetByIDForUpdate(txCtx, instrumentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInstrumentNotFound
			}
			return fmt.Errorf("failed to get instrument: %w", err)
		}

		share, err := s.shareRepo.FindOwned(txCtx, portfolio.ID, instrument.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrShareNotOwned
			}
			return fmt.Errorf("failed to find owned share: %w", err)
		}

		if _, err := s.txRepo.Create(txCtx, domain.Transaction{
			Value:        instrument.Price,
			Operation:    domain.OpSell,
			InstrumentID: &instrument.ID,
			Target:       domain.PortfolioTarget(portfolio.ID),
		}); err != nil {
			return fmt.Errorf("failed to record sell transaction: %w", err)
		}

		if err := s.shareRepo.ReleaseOwner(txCtx, share.ID); err != nil {
			return fmt.Errorf("failed to release share: %w", err)
		}

		if err := s.portfolioRepo.AddCash(txCtx, portfolio.ID, instrument.Price); err != nil {
			return fmt.Errorf("failed to credit portfolio: %w", err)
		}

		newPrice := instrument.Price.Sub(s.game.SaleDecrement)
		if newPrice.LessThan(s.game.PriceFloor) {
			newPrice = s.game.PriceFloor
		}
		if err := s.instrumentRepo.SetPrice(txCtx, instrument.ID, newPrice); err != nil {
			return fmt.Errorf("failed to adjust price: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("share sold",
		slog.Int64("portfolio_id", portfolioID),
		slog.Int64("instrument_id", instrumentID))
	return nil
}

func (s *MarketService) UpdateVote(ctx context.Context, portfolioID int64, vote domain.BoardVote) error {
	if !vote.IsValid() {
		return fmt.Errorf("%w: unknown board vote %q", domain.ErrInvalidInput, vote)
	}

	if err := s.portfolioRepo.SetVote(ctx, portfolioID, vote); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrPortfolioNotFound
		}
		return fmt.Errorf("failed to update vote: %w", err)
	}

	s.lg.Info("board vote updated", slog.Int64("portfolio_id", portfolioID), slog.String("vote", string(vote)))
	return nil
}

func (s *MarketService) GetPortfolioByUser(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return portfolio, nil
}

// GetTransactions returns the portfolio's ledger entries, newest first.
func (s *MarketService) GetTransactions(ctx context.Context, portfolioID int64) ([]domain.Transaction, error) {
	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	transactions, err := s.txRepo.ListForPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// GetCorporateData assembles the claan page header figures: current share
// price, treasury funds, outstanding escrow and lifetime task count.
func (s *MarketService) GetCorporateData(ctx context.Context, claan domain.Claan) (*domain.CorporateData, error) {
	if !claan.IsValid() {
		return nil, fmt.Errorf("%w: unknown claan %q", domain.ErrInvalidInput, claan)
	}

	company, err := s.companyRepo.GetByClaan(ctx, claan)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	instrument, err := s.instrumentRepo.GetByCompanyID(ctx, company.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInstrumentNotFound
		}
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}

	funds, err := s.txRepo.SumForCompany(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum company funds: %w", err)
	}

	escrow, err := s.recordRepo.EscrowTotal(ctx, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to total escrow: %w", err)
	}

	taskCount, err := s.recordRepo.CountForClaan(ctx, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &domain.CorporateData{
		InstrumentPrice: instrument.Price,
		Funds:           funds,
		Escrow:          escrow,
		TaskCount:       taskCount,
	}, nil
}

// GetOwnedShares builds the holdings grid for one claan's page: for every
// portfolio on that claan's board, its position in each claan's instrument.
func (s *MarketService) GetOwnedShares(ctx context.Context, claan domain.Claan) (domain.OwnedShares, error) {
	if !claan.IsValid() {
		return nil, fmt.Errorf("%w: unknown claan %q", domain.ErrInvalidInput, claan)
	}

	company, err := s.companyRepo.GetByClaan(ctx, claan)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	portfolios, err := s.portfolioRepo.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	claanByCompany := make(map[int64]domain.Claan, len(companies))
	for _, c := range companies {
		claanByCompany[c.ID] = c.Claan
	}

	instruments, err := s.instrumentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}

	positions, err := s.shareRepo.CountByPortfolioAndInstrument(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	owned := make(domain.OwnedShares, len(portfolios))
	for _, portfolio := range portfolios {
		row := make(map[domain.Claan]domain.SharePosition, len(instruments))
		for _, instrument := range instruments {
			instrumentClaan, ok := claanByCompany[instrument.CompanyID]
			if !ok {
				continue
			}
			row[instrumentClaan] = domain.SharePosition{
				Count:  positions[portfolio.ID][instrument.ID],
				Price:  instrument.Price,
				Ticker: instrument.Ticker,
			}
		}
		owned[portfolio.ID] = row
	}

	return owned, nil
}

// IssueShares creates count new IPO shares for the instrument.
func (s *MarketService) IssueShares(ctx context.Context, instrumentID int64, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: share count must be positive", domain.ErrInvalidInput)
	}

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.instrumentRepo.GetByID(txCtx, instrumentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInstrumentNotFound
			}
			return fmt.Errorf("failed to get instrument: %w", err)
		}

		if err := s.shareRepo.Issue(txCtx, instrumentID, count); err != nil {
			return fmt.Errorf("failed to issue shares: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.lg.Info("shares issued", slog.Int64("instrument_id", instrumentID), slog.Int("count", count))
	return nil
}

// RetireShare deletes one unowned share of the instrument, IPO or not.
func (s *MarketService) RetireShare(ctx context.Context, instrumentID int64) error {
	err := s.shareRepo.DeleteOneUnowned(ctx, instrumentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to retire share: %w", err)
	}

	s.lg.Info("share retired", slog.Int64("instrument_id", instrumentID))
	return nil
}

// GrantShare hands the portfolio one unowned share of its own claan's
// instrument, free of charge. Used for board-member starting allocations.
func (s *MarketService) GrantShare(ctx context.Context, portfolioID int64) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		portfolio, err := s.portfolioRepo.GetByIDForUpdate(txCtx, portfolioID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrPortfolioNotFound
			}
			return fmt.Errorf("failed to get portfolio: %w", err)
		}

		instrument, err := s.instrumentRepo.GetByCompanyID(txCtx, portfolio.CompanyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInstrumentNotFound
			}
			return fmt.Errorf("failed to get instrument: %w", err)
		}

		share, err := s.shareRepo.FindUnownedPreferIPO(txCtx, instrument.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrNoInventory
			}
			return fmt.Errorf("failed to find share to grant: %w", err)
		}

		if err := s.shareRepo.AssignOwner(txCtx, share.ID, portfolio.ID); err != nil {
			return fmt.Errorf("failed to assign granted share: %w", err)
		}

		return nil
	})
}
