package domain

import "github.com/shopspring/decimal"

type SettlementBranch string

const (
	BranchPayout   SettlementBranch = "PAYOUT"
	BranchWithhold SettlementBranch = "WITHHOLD"
)

// SettlementSummary reports one claan's settlement outcome to the admin.
type SettlementSummary struct {
	Claan          Claan            `json:"claan"`
	Branch         SettlementBranch `json:"branch"`
	EscrowTotal    decimal.Decimal  `json:"escrow_total"`
	CashPerShare   decimal.Decimal  `json:"cash_per_share"`
	CashToCompany  decimal.Decimal  `json:"cash_to_company"`
	PortfoliosPaid int              `json:"portfolios_paid"`
	RecordsSettled int              `json:"records_settled"`
	NewPrice       decimal.Decimal  `json:"new_price"`
}

// ClaanFailure captures a single claan's settlement error so the remaining
// claans still settle.
type ClaanFailure struct {
	Claan Claan  `json:"claan"`
	Error string `json:"error"`
}

type EscrowReport struct {
	Summaries []SettlementSummary `json:"summaries"`
	Failures  []ClaanFailure      `json:"failures,omitempty"`
}

type FortnightInfo struct {
	Number    int    `json:"fortnight_number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// RoundCurrency rounds to two decimal places with banker's rounding, the
// same rule the portal's settlement has always used for cash-per-share.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
