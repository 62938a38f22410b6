package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Operation string

const (
	OpBuy    Operation = "BUY"
	OpSell   Operation = "SELL"
	OpCredit Operation = "CREDIT"
	OpDebit  Operation = "DEBIT"
)

type TargetKind string

const (
	TargetPortfolio TargetKind = "PORTFOLIO"
	TargetCompany   TargetKind = "COMPANY"
)

// TransactionTarget names the account a transaction moves cash for: exactly
// one portfolio or exactly one company. The tagged form makes the
// both-or-neither state unrepresentable; the zero value is invalid and
// rejected by Validate.
type TransactionTarget struct {
	kind TargetKind
	id   int64
}

func PortfolioTarget(portfolioID int64) TransactionTarget {
	return TransactionTarget{kind: TargetPortfolio, id: portfolioID}
}

func CompanyTarget(companyID int64) TransactionTarget {
	return TransactionTarget{kind: TargetCompany, id: companyID}
}

func (t TransactionTarget) Kind() TargetKind { return t.kind }

func (t TransactionTarget) PortfolioID() (int64, bool) {
	return t.id, t.kind == TargetPortfolio
}

func (t TransactionTarget) CompanyID() (int64, bool) {
	return t.id, t.kind == TargetCompany
}

// Transaction is an immutable ledger entry recording one cash movement.
type Transaction struct {
	ID           int64             `json:"id"`
	Value        decimal.Decimal   `json:"value"`
	Operation    Operation         `json:"operation"`
	Timestamp    time.Time         `json:"timestamp"`
	InstrumentID *int64            `json:"instrument_id,omitempty"`
	Target       TransactionTarget `json:"-"`
}

func (t Transaction) Validate() error {
	switch t.Operation {
	case OpBuy, OpSell:
		if t.InstrumentID == nil {
			return fmt.Errorf("%w: %s transaction requires an instrument", ErrInvalidInput, t.Operation)
		}
	case OpCredit, OpDebit:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, t.Operation)
	}

	if t.Target.kind != TargetPortfolio && t.Target.kind != TargetCompany {
		return fmt.Errorf("%w: transaction requires a portfolio or company target", ErrInvalidInput)
	}
	return nil
}
