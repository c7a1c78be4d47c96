package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusSuccess           TransactionStatus = "SUCCESS"
	TransactionStatusAccountError      TransactionStatus = "ACCOUNT_ERROR"
	TransactionStatusCardError         TransactionStatus = "CARD_ERROR"
	TransactionStatusCheckError        TransactionStatus = "CHECK_ERROR"
	TransactionStatusValidityDateError TransactionStatus = "VALIDITY_DATE_ERROR"
	TransactionStatusInsufficientFunds TransactionStatus = "INSUFFICIENT_FUNDS_ERROR"
	TransactionStatusOperationPending  TransactionStatus = "OPERATION_PENDING_ERROR"
	TransactionStatusBankError         TransactionStatus = "BANK_ERROR"
	TransactionStatusMeansOfPayment    TransactionStatus = "MEANS_OF_PAYMENT_ERROR"
	TransactionStatusPaymentError      TransactionStatus = "PAYMENT_ERROR"
	TransactionStatusFailed            TransactionStatus = "FAILED"
)

// BankTransaction is a client-initiated request to move funds from a payer
// instrument to a shop account. OperationID is supplied by the caller and is
// echoed back on every outcome for correlation.
type BankTransaction struct {
	OperationID   string
	Amount        decimal.Decimal
	CardID        string
	CheckToken    string
	PaymentMethod PaymentMethod
	ShopID        string
	Label         string
	Date          time.Time
}

type TransactionResult struct {
	Status      TransactionStatus
	OperationID string
	Message     string
}

// TransactionError carries the status a failed step maps to. It never crosses
// the coordinator boundary: HandleTransaction converts it into a
// TransactionResult.
type TransactionError struct {
	Status      TransactionStatus
	OperationID string
	Message     string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func NewTransactionError(status TransactionStatus, operationID, message string) *TransactionError {
	return &TransactionError{
		Status:      status,
		OperationID: operationID,
		Message:     message,
	}
}
