package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionRequest struct {
	OperationID   string          `json:"operationId"`
	Amount        decimal.Decimal `json:"amount"`
	CardID        string          `json:"cardId,omitempty"`
	CheckToken    string          `json:"checkToken,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
	ShopID        string          `json:"shopId"`
	Label         string          `json:"label"`
	Date          time.Time       `json:"date"`
}

func (r TransactionRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.OperationID) == "" {
		errs = append(errs, "operationId is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if strings.TrimSpace(r.ShopID) == "" {
		errs = append(errs, "shopId is required")
	}

	switch domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.PaymentMethod))) {
	case domain.PaymentMethodCard:
		if strings.TrimSpace(r.CardID) == "" {
			errs = append(errs, "cardId is required for CARD payments")
		}
	case domain.PaymentMethodCheck:
		if strings.TrimSpace(r.CheckToken) == "" {
			errs = append(errs, "checkToken is required for CHECK payments")
		}
	default:
		errs = append(errs, "paymentMethod must be CARD or CHECK")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r TransactionRequest) ToBankTransaction() domain.BankTransaction {
	date := r.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return domain.BankTransaction{
		OperationID:   strings.TrimSpace(r.OperationID),
		Amount:        r.Amount,
		CardID:        strings.TrimSpace(r.CardID),
		CheckToken:    strings.TrimSpace(r.CheckToken),
		PaymentMethod: domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.PaymentMethod))),
		ShopID:        strings.TrimSpace(r.ShopID),
		Label:         strings.TrimSpace(r.Label),
		Date:          date,
	}
}

type TransactionResponse struct {
	Status      string `json:"status"`
	OperationID string `json:"operationId"`
	Message     string `json:"message"`
}
