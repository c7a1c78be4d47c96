package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreateCheckRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	NbDaysOfValidity int             `json:"nbDaysOfValidity"`
}

func (r CreateCheckRequest) Validate() error {
	var errs []string

	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if r.NbDaysOfValidity <= 0 {
		errs = append(errs, "nbDaysOfValidity must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type CheckResponse struct {
	Token            string          `json:"token"`
	Amount           decimal.Decimal `json:"amount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	ExpiresAt        time.Time       `json:"expiresAt"`
}
