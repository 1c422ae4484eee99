package types

import "time"

// BalanceResponse reports a user's coin balance.
type BalanceResponse struct {
	Coins   int       `json:"coins"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

// CheckCoinsRequest asks whether a feature is currently affordable.
type CheckCoinsRequest struct {
	Feature string `json:"feature" validate:"required"`
}

// CheckCoinsResponse is the advisory answer to a CheckCoinsRequest.
// Allowed true does not reserve anything; the deduct call decides.
type CheckCoinsResponse struct {
	Allowed  bool      `json:"allowed"`
	Coins    int       `json:"coins"`
	Required int       `json:"required"`
	Limit    int       `json:"limit"`
	ResetAt  time.Time `json:"reset_at"`
}

// DeductCoinsRequest spends coins for one feature use.
type DeductCoinsRequest struct {
	Feature string `json:"feature" validate:"required"`
}

// DeductCoinsResponse reports the authoritative outcome of a deduction.
type DeductCoinsResponse struct {
	Success bool      `json:"success"`
	Coins   int       `json:"coins"`
	ResetAt time.Time `json:"reset_at"`
	Message string    `json:"message,omitempty"`
}

// CreditCoinsRequest is the admin top-up request.
type CreditCoinsRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Amount int    `json:"amount" validate:"required,min=1"`
}
