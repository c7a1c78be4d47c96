package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OperationStatus string

const (
	OperationStatusPending  OperationStatus = "PENDING"
	OperationStatusClosed   OperationStatus = "CLOSED"
	OperationStatusCanceled OperationStatus = "CANCELED"
)

type OperationType string

const (
	OperationTypeWithdraw OperationType = "WITHDRAW"
	OperationTypeDeposit  OperationType = "DEPOSIT"
)

type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodCheck PaymentMethod = "CHECK"
)

// Operation is one audited leg of a transaction: a debit or a credit against
// a single account. A transaction produces exactly two of them.
type Operation struct {
	ID            string
	OperationRef  string
	Label         string
	Amount        decimal.Decimal
	AccountID     string
	CheckID       *string
	Status        OperationStatus
	Type          OperationType
	PaymentMethod PaymentMethod
	ExecutedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
