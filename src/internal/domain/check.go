package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Check is a prepaid payment instrument identified by an opaque token.
// Many transactions may spend against the same check until its remaining
// balance or validity window runs out.
type Check struct {
	ID               string
	Token            string
	Amount           decimal.Decimal
	RemainingBalance decimal.Decimal
	NbDaysOfValidity int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c Check) ExpiresAt() time.Time {
	return c.CreatedAt.AddDate(0, 0, c.NbDaysOfValidity)
}

func (c Check) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt())
}
