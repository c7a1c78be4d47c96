package services

import (
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
)

// InstrumentValidator is the precondition gate for a payment instrument. It
// never mutates anything; it only decides whether the resolved payer account
// and instrument may carry the transaction.
type InstrumentValidator struct {
	bankOrganisation string
}

func NewInstrumentValidator(bankOrganisation string) *InstrumentValidator {
	return &InstrumentValidator{bankOrganisation: bankOrganisation}
}

func (v *InstrumentValidator) Validate(account domain.Account, check *domain.Check, tx domain.BankTransaction, now time.Time) *domain.TransactionError {
	switch tx.PaymentMethod {
	case domain.PaymentMethodCard:
		if account.Card == nil {
			return domain.NewTransactionError(domain.TransactionStatusCardError, tx.OperationID, "Card not found")
		}
		if account.Card.IsExpired(now) {
			return domain.NewTransactionError(domain.TransactionStatusValidityDateError, tx.OperationID, "Card expired")
		}

	case domain.PaymentMethodCheck:
		if check == nil {
			return domain.NewTransactionError(domain.TransactionStatusCheckError, tx.OperationID, "Check not found")
		}
		// Check payments are always carried by the bank operating account;
		// anything else means the account linkage was forged.
		if account.ClientKind != domain.ClientKindOrganisation || account.ClientName != v.bankOrganisation {
			return domain.NewTransactionError(domain.TransactionStatusBankError, tx.OperationID, "Check payment routed through non-bank account")
		}
		if check.IsExpired(now) {
			return domain.NewTransactionError(domain.TransactionStatusValidityDateError, tx.OperationID, "Check expired")
		}
		if check.RemainingBalance.LessThan(tx.Amount) {
			return domain.NewTransactionError(domain.TransactionStatusInsufficientFunds, tx.OperationID, "Check amount invalid")
		}

	default:
		return domain.NewTransactionError(domain.TransactionStatusMeansOfPayment, tx.OperationID, "Unsupported payment method")
	}

	return nil
}
