package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrTaskNotFound       = errors.New("task not found")
	ErrPortfolioNotFound  = errors.New("portfolio not found")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrSeasonNotFound     = errors.New("no season configured")

	// Trading preconditions. Each kind gets its own user-facing message, so
	// they must stay distinguishable all the way up to the handler.
	ErrSellCooldown      = errors.New("shares in this company were already sold this fortnight")
	ErrOwnershipCap      = errors.New("cannot own more shares of a single company than the cap allows")
	ErrInsufficientFunds = errors.New("not enough cash to buy this share")
	ErrNoInventory       = errors.New("no shares left to buy")
	ErrShareNotOwned     = errors.New("no shares of this company to sell")

	ErrDuplicateRecord = errors.New("task submitted too recently")

	// Data-integrity failures abort a single claan's settlement without
	// touching the others.
	ErrNoShares = errors.New("instrument has no shares, refusing to divide escrow")
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
