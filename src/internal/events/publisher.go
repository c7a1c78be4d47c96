package events

import (
	"context"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionCompleted struct {
	OperationRef        string               `json:"operation_ref"`
	WithdrawOperationID string               `json:"withdraw_operation_id"`
	DepositOperationID  string               `json:"deposit_operation_id"`
	PayerAccountID      string               `json:"payer_account_id"`
	ShopAccountID       string               `json:"shop_account_id"`
	Amount              decimal.Decimal      `json:"amount"`
	PaymentMethod       domain.PaymentMethod `json:"payment_method"`
	OccurredAt          time.Time            `json:"occurred_at"`
}

type Publisher interface {
	PublishTransactionCompleted(ctx context.Context, event TransactionCompleted) error
}

// NoopPublisher backs deployments without a broker and the unit tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionCompleted(context.Context, TransactionCompleted) error {
	return nil
}
