package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClientKind string

const (
	ClientKindIndividual   ClientKind = "INDIVIDUAL"
	ClientKindMerchant     ClientKind = "MERCHANT"
	ClientKindOrganisation ClientKind = "ORGANISATION"
)

type Card struct {
	ID        string
	ExpiresAt time.Time
}

func (c Card) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type Account struct {
	ID         string
	ClientID   string
	ClientName string
	ClientKind ClientKind
	Balance    decimal.Decimal
	Card       *Card
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
