package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionTarget(t *testing.T) {
	portfolio := PortfolioTarget(7)
	assert.Equal(t, TargetPortfolio, portfolio.Kind())
	id, ok := portfolio.PortfolioID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	_, ok = portfolio.CompanyID()
	assert.False(t, ok)

	company := CompanyTarget(3)
	assert.Equal(t, TargetCompany, company.Kind())
	id, ok = company.CompanyID()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	_, ok = company.PortfolioID()
	assert.False(t, ok)
}

func TestTransactionValidate(t *testing.T) {
	instrumentID := int64(1)

	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{
			name: "buy with instrument",
			tx: Transaction{
				Value:        decimal.NewFromInt(10),
				Operation:    OpBuy,
				InstrumentID: &instrumentID,
				Target:       PortfolioTarget(1),
			},
		},
		{
			name: "buy without instrument",
			tx: Transaction{
				Value:     decimal.NewFromInt(10),
				Operation: OpBuy,
				Target:    PortfolioTarget(1),
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "sell without instrument",
			tx: Transaction{
				Value:     decimal.NewFromInt(10),
				Operation: OpSell,
				Target:    PortfolioTarget(1),
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "credit without instrument",
			tx: Transaction{
				Value:     decimal.NewFromInt(10),
				Operation: OpCredit,
				Target:    CompanyTarget(2),
			},
		},
		{
			name: "missing target",
			tx: Transaction{
				Value:     decimal.NewFromInt(10),
				Operation: OpCredit,
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "unknown operation",
			tx: Transaction{
				Value:     decimal.NewFromInt(10),
				Operation: Operation("TRANSFER"),
				Target:    PortfolioTarget(1),
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRoundCurrencyHalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.005", "2"},
		{"2.015", "2.02"},
		{"2.025", "2.02"},
		{"2.5249", "2.52"},
		{"0.125", "0.12"},
		{"0.135", "0.14"},
		{"100", "100"},
	}
	for _, tt := range tests {
		got := RoundCurrency(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"RoundCurrency(%s) = %s, want %s", tt.in, got, tt.want)
	}
}
