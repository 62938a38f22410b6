package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Game holds the market tuning constants. The portal has changed these
// between seasons, so they are environment-driven with the current-season
// values as defaults rather than hard-coded invariants.
type Game struct {
	// PriceFloor is the minimum instrument price; withhold cuts and sale
	// decrements clamp here.
	PriceFloor decimal.Decimal
	// PriceStep is the fixed settlement-driven price move, applied upward on
	// a high payout and downward on a withhold.
	PriceStep decimal.Decimal
	// SaleDecrement is the small market-pressure price cut applied on every
	// sale, composing additively with settlement moves.
	SaleDecrement decimal.Decimal
	// OwnershipCap is the maximum shares one portfolio may hold in a single
	// instrument.
	OwnershipCap int
	// SharePool is the share count each instrument is topped up to at init.
	SharePool int
	// StartingShares is how many own-claan shares each board member is
	// granted at init.
	StartingShares int
}

func LoadGame() Game {
	return Game{
		PriceFloor:     envDecimal("GAME_PRICE_FLOOR", "10.0"),
		PriceStep:      envDecimal("GAME_PRICE_STEP", "10"),
		SaleDecrement:  envDecimal("GAME_SALE_DECREMENT", "0.1"),
		OwnershipCap:   envInt("GAME_OWNERSHIP_CAP", 5),
		SharePool:      envInt("GAME_SHARE_POOL", 50),
		StartingShares: envInt("GAME_STARTING_SHARES", 2),
	}
}

func envDecimal(key, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return d
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
