package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	ClientID       string          `json:"clientId"`
	ClientName     string          `json:"clientName"`
	ClientKind     string          `json:"clientKind"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CardExpiresAt  *time.Time      `json:"cardExpiresAt,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.ClientID) == "" {
		errs = append(errs, "clientId is required")
	}
	if strings.TrimSpace(r.ClientName) == "" {
		errs = append(errs, "clientName is required")
	}

	switch domain.ClientKind(strings.ToUpper(strings.TrimSpace(r.ClientKind))) {
	case domain.ClientKindIndividual, domain.ClientKindMerchant, domain.ClientKindOrganisation:
	default:
		errs = append(errs, "clientKind must be INDIVIDUAL, MERCHANT or ORGANISATION")
	}

	if r.InitialBalance.IsNegative() {
		errs = append(errs, "initialBalance cannot be negative")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type OperationResponse struct {
	ID            string          `json:"id"`
	OperationRef  string          `json:"operationRef"`
	Label         string          `json:"label"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Type          string          `json:"type"`
	PaymentMethod string          `json:"paymentMethod"`
	ExecutedAt    time.Time       `json:"executedAt"`
}

type AccountResponse struct {
	ID         string              `json:"id"`
	ClientID   string              `json:"clientId"`
	ClientName string              `json:"clientName"`
	ClientKind string              `json:"clientKind"`
	Balance    decimal.Decimal     `json:"balance"`
	CardID     string              `json:"cardId,omitempty"`
	Operations []OperationResponse `json:"operations,omitempty"`
}
