package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmailUnavailable is shown in place of an email when an investment's owner
// has no matching profile.
const EmailUnavailable = "N/A"

// Investment is one record of the remote investments collection.
type Investment struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	ROI       decimal.Decimal
	CreatedAt time.Time
}

// Profile is the subset of a user profile the admin view needs.
type Profile struct {
	ID    string
	Email string
}

// ViewRow is an investment enriched with its owner's email.
type ViewRow struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"user_email"`
	Amount    decimal.Decimal `json:"amount"`
	ROI       decimal.Decimal `json:"roi"`
	CreatedAt time.Time       `json:"created_at"`
}
