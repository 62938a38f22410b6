package market

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whompratt/claans/internal/config"
	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
)

type fixture struct {
	portfolios  map[int64]*domain.Portfolio
	instruments map[int64]*domain.Instrument
	companies   map[domain.Claan]*domain.Company
	shares      []*domain.Share
	sold        map[[2]int64]bool

	ledger []domain.Transaction
}

func newFixture() *fixture {
	return &fixture{
		portfolios:  map[int64]*domain.Portfolio{},
		instruments: map[int64]*domain.Instrument{},
		companies:   map[domain.Claan]*domain.Company{},
		sold:        map[[2]int64]bool{},
	}
}

func (f *fixture) addShare(id, instrumentID int64, ownerID *int64, ipo bool) {
	f.shares = append(f.shares, &domain.Share{
		ID:           id,
		InstrumentID: instrumentID,
		OwnerID:      ownerID,
		IPO:          ipo,
	})
}

func (f *fixture) shareByID(id int64) *domain.Share {
	for _, share := range f.shares {
		if share.ID == id {
			return share
		}
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "got %s, want %s", got, want)
}

type fakePortfolios struct{ f *fixture }

func (r *fakePortfolios) GetByID(_ context.Context, portfolioID int64) (*domain.Portfolio, error) {
	portfolio, ok := r.f.portfolios[portfolioID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *portfolio
	return &cp, nil
}

func (r *fakePortfolios) GetByIDForUpdate(ctx context.Context, portfolioID int64) (*domain.Portfolio, error) {
	return r.GetByID(ctx, portfolioID)
}

func (r *fakePortfolios) GetByUserID(_ context.Context, userID int64) (*domain.Portfolio, error) {
	for _, portfolio := range r.f.portfolios {
		if portfolio.UserID == userID {
			cp := *portfolio
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePortfolios) ListByCompany(_ context.Context, companyID int64) ([]domain.Portfolio, error) {
	var portfolios []domain.Portfolio
	for _, portfolio := range r.f.portfolios {
		if portfolio.CompanyID == companyID {
			portfolios = append(portfolios, *portfolio)
		}
	}
	return portfolios, nil
}

func (r *fakePortfolios) SetVote(_ context.Context, portfolioID int64, vote domain.BoardVote) error {
	portfolio, ok := r.f.portfolios[portfolioID]
	if !ok {
		return repository.ErrNotFound
	}
	portfolio.BoardVote = vote
	return nil
}

func (r *fakePortfolios) AddCash(_ context.Context, portfolioID int64, delta decimal.Decimal) error {
	portfolio, ok := r.f.portfolios[portfolioID]
	if !ok {
		return repository.ErrNotFound
	}
	portfolio.Cash = portfolio.Cash.Add(delta)
	return nil
}

type fakeInstruments struct{ f *fixture }

func (r *fakeInstruments) GetByID(_ context.Context, instrumentID int64) (*domain.Instrument, error) {
	instrument, ok := r.f.instruments[instrumentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *instrument
	return &cp, nil
}

func (r *fakeInstruments) GetByIDForUpdate(ctx context.Context, instrumentID int64) (*domain.Instrument, error) {
	return r.GetByID(ctx, instrumentID)
}

func (r *fakeInstruments) GetByCompanyID(_ context.Context, companyID int64) (*domain.Instrument, error) {
	for _, instrument := range r.f.instruments {
		if instrument.CompanyID == companyID {
			cp := *instrument
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInstruments) List(_ context.Context) ([]domain.Instrument, error) {
	var instruments []domain.Instrument
	for _, instrument := range r.f.instruments {
		instruments = append(instruments, *instrument)
	}
	return instruments, nil
}

func (r *fakeInstruments) SetPrice(_ context.Context, instrumentID int64, price decimal.Decimal) error {
	instrument, ok := r.f.instruments[instrumentID]
	if !ok {
		return repository.ErrNotFound
	}
	instrument.Price = price
	return nil
}

type fakeShares struct{ f *fixture }

func (r *fakeShares) Issue(_ context.Context, instrumentID int64, count int) error {
	next := int64(len(r.f.shares) + 1)
	for i := 0; i < count; i++ {
		r.f.addShare(next+int64(i), instrumentID, nil, true)
	}
	return nil
}

func (r *fakeShares) DeleteOneUnowned(_ context.Context, instrumentID int64) error {
	for i, share := range r.f.shares {
		if share.InstrumentID == instrumentID && share.OwnerID == nil {
			r.f.shares = append(r.f.shares[:i], r.f.shares[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeShares) FindUnownedPreferIPO(_ context.Context, instrumentID int64) (*domain.Share, error) {
	var fallback *domain.Share
	for _, share := range r.f.shares {
		if share.InstrumentID != instrumentID || share.OwnerID != nil {
			continue
		}
		if share.IPO {
			cp := *share
			return &cp, nil
		}
		if fallback == nil {
			fallback = share
		}
	}
	if fallback == nil {
		return nil, repository.ErrNotFound
	}
	cp := *fallback
	return &cp, nil
}

func (r *fakeShares) FindOwned(_ context.Context, portfolioID, instrumentID int64) (*domain.Share, error) {
	for _, share := range r.f.shares {
		if share.InstrumentID == instrumentID && share.OwnerID != nil && *share.OwnerID == portfolioID {
			cp := *share
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeShares) AssignOwner(_ context.Context, shareID, portfolioID int64) error {
	share := r.f.shareByID(shareID)
	if share == nil {
		return repository.ErrNotFound
	}
	owner := portfolioID
	share.OwnerID = &owner
	share.IPO = false
	return nil
}

func (r *fakeShares) ReleaseOwner(_ context.Context, shareID int64) error {
	share := r.f.shareByID(shareID)
	if share == nil {
		return repository.ErrNotFound
	}
	share.OwnerID = nil
	return nil
}

func (r *fakeShares) CountOwned(_ context.Context, portfolioID, instrumentID int64) (int64, error) {
	var count int64
	for _, share := range r.f.shares {
		if share.InstrumentID == instrumentID && share.OwnerID != nil && *share.OwnerID == portfolioID {
			count++
		}
	}
	return count, nil
}

func (r *fakeShares) CountByPortfolioAndInstrument(_ context.Context) (map[int64]map[int64]int64, error) {
	positions := map[int64]map[int64]int64{}
	for _, share := range r.f.shares {
		if share.OwnerID == nil {
			continue
		}
		if positions[*share.OwnerID] == nil {
			positions[*share.OwnerID] = map[int64]int64{}
		}
		positions[*share.OwnerID][share.InstrumentID]++
	}
	return positions, nil
}

type fakeLedger struct{ f *fixture }

func (r *fakeLedger) Create(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	tx.ID = int64(len(r.f.ledger) + 1)
	r.f.ledger = append(r.f.ledger, tx)
	return &tx, nil
}

func (r *fakeLedger) SoldSince(_ context.Context, portfolioID, instrumentID int64, _ time.Time) (bool, error) {
	return r.f.sold[[2]int64{portfolioID, instrumentID}], nil
}

func (r *fakeLedger) SumForCompany(_ context.Context, _ int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (r *fakeLedger) ListForPortfolio(_ context.Context, portfolioID int64) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for _, tx := range r.f.ledger {
		if id, ok := tx.Target.PortfolioID(); ok && id == portfolioID {
			transactions = append(transactions, tx)
		}
	}
	return transactions, nil
}

type fakeCompanies struct{ f *fixture }

func (r *fakeCompanies) GetByClaan(_ context.Context, claan domain.Claan) (*domain.Company, error) {
	company, ok := r.f.companies[claan]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *company
	return &cp, nil
}

func (r *fakeCompanies) List(_ context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	for _, claan := range domain.Claans() {
		if company, ok := r.f.companies[claan]; ok {
			companies = append(companies, *company)
		}
	}
	return companies, nil
}

type fakeRecords struct{}

func (fakeRecords) EscrowTotal(_ context.Context, _ domain.Claan) (int64, error)   { return 0, nil }
func (fakeRecords) CountForClaan(_ context.Context, _ domain.Claan) (int64, error) { return 0, nil }

type fixedFortnight struct{ start time.Time }

func (s fixedFortnight) FortnightStart(_ context.Context) (time.Time, error) {
	return s.start, nil
}

type passTxManager struct{}

func (passTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testGame() config.Game {
	return config.Game{
		PriceFloor:     dec("10"),
		PriceStep:      dec("10"),
		SaleDecrement:  dec("0.1"),
		OwnershipCap:   5,
		SharePool:      50,
		StartingShares: 2,
	}
}

func newService(f *fixture) *MarketService {
	return NewMarketService(
		&fakePortfolios{f}, &fakeInstruments{f}, &fakeShares{f},
		&fakeLedger{f}, &fakeCompanies{f}, fakeRecords{},
		fixedFortnight{start: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)},
		passTxManager{}, testGame(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// seedMarket sets up one portfolio (id 1, cash 100) and one instrument
// (id 1, price 10) with three unowned IPO shares.
func seedMarket(f *fixture) {
	f.companies[domain.ClaanEarthStriders] = &domain.Company{ID: 1, Claan: domain.ClaanEarthStriders}
	f.instruments[1] = &domain.Instrument{ID: 1, CompanyID: 1, Ticker: "EARTH", Price: dec("10")}
	f.portfolios[1] = &domain.Portfolio{ID: 1, UserID: 10, CompanyID: 1, Cash: dec("100"), BoardVote: domain.VoteAbstain}
	f.addShare(1, 1, nil, true)
	f.addShare(2, 1, nil, true)
	f.addShare(3, 1, nil, true)
}

func TestBuyShare(t *testing.T) {
	f := newFixture()
	seedMarket(f)

	err := newService(f).BuyShare(context.Background(), 1, 1)
	require.NoError(t, err)

	assertDec(t, "90", f.portfolios[1].Cash)

	owned, _ := (&fakeShares{f}).CountOwned(context.Background(), 1, 1)
	assert.Equal(t, int64(1), owned)

	require.Len(t, f.ledger, 1)
	assert.Equal(t, domain.OpBuy, f.ledger[0].Operation)
	assertDec(t, "10", f.ledger[0].Value)
	portfolioID, ok := f.ledger[0].Target.PortfolioID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), portfolioID)

	// Buying never moves the price.
	assertDec(t, "10", f.instruments[1].Price)
}

func TestBuyPrefersIPOShares(t *testing.T) {
	f := newFixture()
	f.companies[domain.ClaanEarthStriders] = &domain.Company{ID: 1, Claan: domain.ClaanEarthStriders}
	f.instruments[1] = &domain.Instrument{ID: 1, CompanyID: 1, Ticker: "EARTH", Price: dec("10")}
	f.portfolios[1] = &domain.Portfolio{ID: 1, CompanyID: 1, Cash: dec("100")}
	f.addShare(1, 1, nil, false) // bank share
	f.addShare(2, 1, nil, true)  // IPO share

	err := newService(f).BuyShare(context.Background(), 1, 1)
	require.NoError(t, err)

	ipoShare := f.shareByID(2)
	require.NotNil(t, ipoShare.OwnerID)
	assert.Equal(t, int64(1), *ipoShare.OwnerID)
	assert.False(t, ipoShare.IPO, "purchase clears the IPO flag")
	assert.Nil(t, f.shareByID(1).OwnerID)
}

func TestBuyBlockedBySellCooldown(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	f.sold[[2]int64{1, 1}] = true

	err := newService(f).BuyShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrSellCooldown)
	assert.Empty(t, f.ledger)
	assertDec(t, "100", f.portfolios[1].Cash)
}

func TestBuyBlockedByOwnershipCap(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	for i := int64(0); i < 5; i++ {
		owner := int64(1)
		f.addShare(10+i, 1, &owner, false)
	}

	err := newService(f).BuyShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrOwnershipCap)
	assert.Empty(t, f.ledger)
	assertDec(t, "100", f.portfolios[1].Cash)
}

func TestBuyBlockedByInsufficientFunds(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	f.portfolios[1].Cash = dec("9.99")

	err := newService(f).BuyShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Empty(t, f.ledger)
}

func TestBuyBlockedByEmptyInventory(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	other := int64(99)
	for _, share := range f.shares {
		share.OwnerID = &other
	}

	err := newService(f).BuyShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrNoInventory)
	assert.Empty(t, f.ledger)
}

func TestBuyCooldownCheckedBeforeCap(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	f.sold[[2]int64{1, 1}] = true
	for i := int64(0); i < 5; i++ {
		owner := int64(1)
		f.addShare(10+i, 1, &owner, false)
	}

	err := newService(f).BuyShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrSellCooldown)
}

func TestSellShare(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	f.instruments[1].Price = dec("15")
	owner := int64(1)
	f.addShare(10, 1, &owner, false)

	err := newService(f).SellShare(context.Background(), 1, 1)
	require.NoError(t, err)

	assertDec(t, "115", f.portfolios[1].Cash)

	share := f.shareByID(10)
	assert.Nil(t, share.OwnerID)
	assert.False(t, share.IPO, "a sold share returns to the bank, not the IPO pool")

	require.Len(t, f.ledger, 1)
	assert.Equal(t, domain.OpSell, f.ledger[0].Operation)
	assertDec(t, "15", f.ledger[0].Value)

	// Every sale nudges the price down.
	assertDec(t, "14.9", f.instruments[1].Price)
}

func TestSellAtFloorKeepsPrice(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	owner := int64(1)
	f.addShare(10, 1, &owner, false)

	err := newService(f).SellShare(context.Background(), 1, 1)
	require.NoError(t, err)
	assertDec(t, "10", f.instruments[1].Price)
}

func TestSellShareNotOwned(t *testing.T) {
	f := newFixture()
	seedMarket(f)

	err := newService(f).SellShare(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrShareNotOwned)
	assert.Empty(t, f.ledger)
	assertDec(t, "100", f.portfolios[1].Cash)
}

func TestUpdateVote(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	svc := newService(f)

	err := svc.UpdateVote(context.Background(), 1, domain.VotePayout)
	require.NoError(t, err)
	assert.Equal(t, domain.VotePayout, f.portfolios[1].BoardVote)

	err = svc.UpdateVote(context.Background(), 1, domain.BoardVote("MAYBE"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.UpdateVote(context.Background(), 42, domain.VoteWithhold)
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestGrantShare(t *testing.T) {
	f := newFixture()
	seedMarket(f)

	err := newService(f).GrantShare(context.Background(), 1)
	require.NoError(t, err)

	owned, _ := (&fakeShares{f}).CountOwned(context.Background(), 1, 1)
	assert.Equal(t, int64(1), owned)
	// Grants are free and leave no ledger entry.
	assert.Empty(t, f.ledger)
	assertDec(t, "100", f.portfolios[1].Cash)
}

func TestGetTransactions(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	svc := newService(f)

	require.NoError(t, svc.BuyShare(context.Background(), 1, 1))
	require.NoError(t, svc.SellShare(context.Background(), 1, 1))

	transactions, err := svc.GetTransactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, domain.OpBuy, transactions[0].Operation)
	assert.Equal(t, domain.OpSell, transactions[1].Operation)

	_, err = svc.GetTransactions(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)
}

func TestIssueShares(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	svc := newService(f)

	err := svc.IssueShares(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Len(t, f.shares, 8)

	err = svc.IssueShares(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.IssueShares(context.Background(), 42, 1)
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)
}

func TestRetireShare(t *testing.T) {
	f := newFixture()
	seedMarket(f)
	svc := newService(f)

	err := svc.RetireShare(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, f.shares, 2)

	owner := int64(1)
	f.shares = nil
	f.addShare(1, 1, &owner, false)
	err = svc.RetireShare(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
