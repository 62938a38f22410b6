package settlement

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
	GetByClaan(ctx context.Context, claan domain.Claan) (*domain.Company, error)
	GetByClaanForUpdate(ctx context.Context, claan domain.Claan) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
	AddCash(ctx context.Context, companyID int64, delta decimal.Decimal) error
}

type InstrumentRepository interface {
	GetByCompanyIDForUpdate(ctx context.Context, companyID int64) (*domain.Instrument, error)
	SetPrice(ctx context.Context, instrumentID int64, price decimal.Decimal) error
}

type ShareRepository interface {
	CountForInstrument(ctx context.Context, instrumentID int64) (int64, error)
	CountIPO(ctx context.Context, instrumentID int64) (int64, error)
	Holders(ctx context.Context, instrumentID int64) ([]domain.Holding, error)
}

type PortfolioRepository interface {
	VoteTally(ctx context.Context, companyID int64) (map[domain.BoardVote]int, error)
	AddCash(ctx context.Context, portfolioID int64, delta decimal.Decimal) error
}

type RecordRepository interface {
	ListEscrowed(ctx context.Context, claan domain.Claan) ([]domain.Record, error)
	ClearEscrow(ctx context.Context, recordIDs []int64) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
}

type SettlementService struct {
	companyRepo    CompanyRepository
	instrumentRepo InstrumentRepository
	shareRepo      ShareRepository
	portfolioRepo  PortfolioRepository
	recordRepo     RecordRepository
	txRepo         TransactionRepository
	txManager      database.TransactionManagerInterface
	game           config.Game
	lg             *slog.Logger
}

func NewSettlementService(
	companyRepo CompanyRepository,
	instrumentRepo InstrumentRepository,
	shareRepo ShareRepository,
	portfolioRepo PortfolioRepository,
	recordRepo RecordRepository,
	txRepo TransactionRepository,
	txManager database.TransactionManagerInterface,
	game config.Game,
	lg *slog.Logger) *SettlementService {
	return &SettlementService{
		companyRepo:    companyRepo,
		instrumentRepo: instrumentRepo,
		shareRepo:      shareRepo,
		portfolioRepo:  portfolioRepo,
		recordRepo:     recordRepo,
		txRepo:         txRepo,
		txManager:      txManager,
		game:           game,
		lg:             lg,
	}
}

// ProcessEscrow settles every company in turn. Each claan settles inside
// its own transaction, so one claan's failure never corrupts or blocks the
// others; failures are collected into the report instead.
func (s *SettlementService) ProcessEscrow(ctx context.Context) (*domain.EscrowReport, error) {
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	report := &domain.EscrowReport{}
	for _, company := range companies {
		summary, err := s.settleCompany(ctx, company)
		if err != nil {
			s.lg.Error("claan settlement failed",
				slog.String("claan", string(company.Claan)),
				slog.Any("error", err))
			report.Failures = append(report.Failures, domain.ClaanFailure{
				Claan: company.Claan,
				Error: err.Error(),
			})
			continue
		}
		report.Summaries = append(report.Summaries, *summary)
	}

	return report, nil
}

// ProcessClaanEscrow settles a single claan.
func (s *SettlementService) ProcessClaanEscrow(ctx context.Context, claan domain.Claan) (*domain.SettlementSummary, error) {
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

	return s.settleCompany(ctx, *company)
}

func (s *SettlementService) settleCompany(ctx context.Context, company domain.Company) (*domain.SettlementSummary, error) {
	var summary *domain.SettlementSummary

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Lock order: company then instrument, same as the trading path's
		// portfolio-then-instrument never touches the company row.
		locked, err := s.companyRepo.GetByClaanForUpdate(txCtx, company.Claan)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrCompanyNotFound
			}
			return fmt.Errorf("failed to lock company: %w", err)
		}

		instrument, err := s.instrumentRepo.GetByCompanyIDForUpdate(txCtx, locked.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInstrumentNotFound
			}
			return fmt.Errorf("failed to lock instrument: %w", err)
		}

		tally, err := s.portfolioRepo.VoteTally(txCtx, locked.ID)
		if err != nil {
			return fmt.Errorf("failed to tally votes: %w", err)
		}

		// The escrow snapshot for this settlement. ClearEscrow names these
		// ids explicitly, so records submitted after this point wait for the
		// next pass.
		records, err := s.recordRepo.ListEscrowed(txCtx, locked.Claan)
		if err != nil {
			return fmt.Errorf("failed to snapshot escrow: %w", err)
		}

		// Abstentions neither help nor hinder; the tie favours payout.
		if tally[domain.VotePayout] >= tally[domain.VoteWithhold] {
			summary, err = s.payout(txCtx, locked, instrument, records)
		} else {
			summary, err = s.withhold(txCtx, locked, instrument, records)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("claan settled",
		slog.String("claan", string(company.Claan)),
		slog.String("branch", string(summary.Branch)),
		slog.String("escrow", summary.EscrowTotal.String()),
		slog.String("new_price", summary.NewPrice.String()))
	return summary, nil
}

func (s *SettlementService) payout(ctx context.Context, company *domain.Company, instrument *domain.Instrument, records []domain.Record) (*domain.SettlementSummary, error) {
	summary := &domain.SettlementSummary{
		Claan:         company.Claan,
		Branch:        domain.BranchPayout,
		EscrowTotal:   decimal.Zero,
		CashPerShare:  decimal.Zero,
		CashToCompany: decimal.Zero,
		NewPrice:      instrument.Price,
	}

	// Nothing escrowed: settling again is a no-op, no ledger writes at all.
	if len(records) == 0 {
		return summary, nil
	}

	escrowTotal, recordIDs := sumEscrow(records)
	summary.EscrowTotal = escrowTotal
	summary.RecordsSettled = len(records)

	totalShares, err := s.shareRepo.CountForInstrument(ctx, instrument.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count shares: %w", err)
	}
	if totalShares == 0 {
		return nil, fmt.Errorf("%w: instrument %d", domain.ErrNoShares, instrument.ID)
	}

	ipoShares, err := s.shareRepo.CountIPO(ctx, instrument.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count IPO shares: %w", err)
	}

	cashPerShare := domain.RoundCurrency(escrowTotal.Div(decimal.NewFromInt(totalShares)))
	cashToCompany := domain.RoundCurrency(cashPerShare.Mul(decimal.NewFromInt(ipoShares)))
	summary.CashPerShare = cashPerShare
	summary.CashToCompany = cashToCompany

	// One CREDIT per holding portfolio, at the aggregate value. The portion
	// attributable to unowned non-IPO shares is paid to nobody.
	holders, err := s.shareRepo.Holders(ctx, instrument.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shareholders: %w", err)
	}

	for _, holding := range holders {
		dividend := cashPerShare.Mul(decimal.NewFromInt(holding.Count))
		if _, err := s.txRepo.Create(ctx, domain.Transaction{
			Value:     dividend,
			Operation: domain.OpCredit,
			Target:    domain.PortfolioTarget(holding.PortfolioID),
		}); err != nil {
			return nil, fmt.Errorf("failed to record dividend for portfolio %d: %w", holding.PortfolioID, err)
		}
		if err := s.portfolioRepo.AddCash(ctx, holding.PortfolioID, dividend); err != nil {
			return nil, fmt.Errorf("failed to credit portfolio %d: %w", holding.PortfolioID, err)
		}
	}
	summary.PortfoliosPaid = len(holders)

	// IPO shares pay the company treasury.
	if _, err := s.txRepo.Create(ctx, domain.Transaction{
		Value:     cashToCompany,
		Operation: domain.OpCredit,
		Target:    domain.CompanyTarget(company.ID),
	}); err != nil {
		return nil, fmt.Errorf("failed to record company dividend: %w", err)
	}
	if err := s.companyRepo.AddCash(ctx, company.ID, cashToCompany); err != nil {
		return nil, fmt.Errorf("failed to credit company: %w", err)
	}

	if err := s.recordRepo.ClearEscrow(ctx, recordIDs); err != nil {
		return nil, fmt.Errorf("failed to clear escrow: %w", err)
	}

	// A payout that meets or beats the current price bumps it by the fixed
	// step. There is no downward move on a low payout.
	if cashPerShare.GreaterThanOrEqual(instrument.Price) {
		newPrice := instrument.Price.Add(s.game.PriceStep)
		if err := s.instrumentRepo.SetPrice(ctx, instrument.ID, newPrice); err != nil {
			return nil, fmt.Errorf("failed to raise price: %w", err)
		}
		summary.NewPrice = newPrice
	}

	return summary, nil
}

func (s *SettlementService) withhold(ctx context.Context, company *domain.Company, instrument *domain.Instrument, records []domain.Record) (*domain.SettlementSummary, error) {
	summary := &domain.SettlementSummary{
		Claan:         company.Claan,
		Branch:        domain.BranchWithhold,
		EscrowTotal:   decimal.Zero,
		CashPerShare:  decimal.Zero,
		CashToCompany: decimal.Zero,
		NewPrice:      instrument.Price,
	}

	// Nothing escrowed: no credit and, crucially, no repeat price cut.
	if len(records) == 0 {
		return summary, nil
	}

	escrowTotal, recordIDs := sumEscrow(records)
	summary.EscrowTotal = escrowTotal
	summary.CashToCompany = escrowTotal
	summary.RecordsSettled = len(records)

	if _, err := s.txRepo.Create(ctx, domain.Transaction{
		Value:     escrowTotal,
		Operation: domain.OpCredit,
		Target:    domain.CompanyTarget(company.ID),
	}); err != nil {
		return nil, fmt.Errorf("failed to record withheld credit: %w", err)
	}
	if err := s.companyRepo.AddCash(ctx, company.ID, escrowTotal); err != nil {
		return nil, fmt.Errorf("failed to credit company: %w", err)
	}

	newPrice := instrument.Price.Sub(s.game.PriceStep)
	if newPrice.LessThan(s.game.PriceFloor) {
		newPrice = s.game.PriceFloor
	}
	if err := s.instrumentRepo.SetPrice(ctx, instrument.ID, newPrice); err != nil {
		return nil, fmt.Errorf("failed to cut price: %w", err)
	}
	summary.NewPrice = newPrice

	if err := s.recordRepo.ClearEscrow(ctx, recordIDs); err != nil {
		return nil, fmt.Errorf("failed to clear escrow: %w", err)
	}

	return summary, nil
}

func sumEscrow(records []domain.Record) (decimal.Decimal, []int64) {
	total := decimal.Zero
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		total = total.Add(decimal.NewFromInt(record.Score))
		ids = append(ids, record.ID)
	}
	return total, ids
}
