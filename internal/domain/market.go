package domain

import "github.com/shopspring/decimal"

// BoardVote is a portfolio's standing preference for the next settlement.
type BoardVote string

const (
	VoteAbstain  BoardVote = "ABSTAIN"
	VoteWithhold BoardVote = "WITHHOLD"
	VotePayout   BoardVote = "PAYOUT"
)

func (v BoardVote) IsValid() bool {
	switch v {
	case VoteAbstain, VoteWithhold, VotePayout:
		return true
	default:
		return false
	}
}

// Company is a claan's corporate presence: it holds the team treasury.
type Company struct {
	ID    int64           `json:"id"`
	Claan Claan           `json:"claan"`
	Cash  decimal.Decimal `json:"cash"`
}

// Instrument is the tradeable stock representing a company. Price never
// drops below the configured floor.
type Instrument struct {
	ID        int64           `json:"id"`
	CompanyID int64           `json:"company_id"`
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
}

// Share is one indivisible unit of an instrument. OwnerID nil means the
// share is unowned: still in IPO if the ipo flag is set (dividends route to
// the company), or returned to the bank if not (dividends route nowhere).
// The ipo flag is cleared on first purchase and never set again.
type Share struct {
	ID           int64  `json:"id"`
	InstrumentID int64  `json:"instrument_id"`
	OwnerID      *int64 `json:"owner_id,omitempty"`
	IPO          bool   `json:"ipo"`
}

// Portfolio is a user's market presence: cash plus a standing board vote.
// Exactly one per user.
type Portfolio struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CompanyID int64           `json:"company_id"`
	Cash      decimal.Decimal `json:"cash"`
	BoardVote BoardVote       `json:"board_vote"`
}

// Holding is a portfolio's aggregate position in one instrument.
type Holding struct {
	PortfolioID int64 `json:"portfolio_id"`
	Count       int64 `json:"count"`
}

// CorporateData is the read view the portal renders for one claan.
type CorporateData struct {
	InstrumentPrice decimal.Decimal `json:"instrument_price"`
	Funds           decimal.Decimal `json:"funds"`
	Escrow          int64           `json:"escrow"`
	TaskCount       int64           `json:"task_count"`
}

// OwnedShares maps portfolio id -> claan -> position, the cross-company
// holdings grid rendered on each claan page.
type OwnedShares map[int64]map[Claan]SharePosition

type SharePosition struct {
	Count  int64           `json:"count"`
	Price  decimal.Decimal `json:"price"`
	Ticker string          `json:"ticker"`
}

type BuyShareRequest struct {
	PortfolioID  int64 `json:"portfolio_id"`
	InstrumentID int64 `json:"instrument_id"`
}

type SellShareRequest struct {
	PortfolioID  int64 `json:"portfolio_id"`
	InstrumentID int64 `json:"instrument_id"`
}

type UpdateVoteRequest struct {
	PortfolioID int64     `json:"portfolio_id"`
	Vote        BoardVote `json:"vote"`
}

type IssueSharesRequest struct {
	InstrumentID int64 `json:"instrument_id"`
	Count        int   `json:"count"`
}

type RetireShareRequest struct {
	InstrumentID int64 `json:"instrument_id"`
}

type IssueCreditRequest struct {
	Value decimal.Decimal `json:"value"`
}
