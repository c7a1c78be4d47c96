package repo_interfaces

import (
	"context"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckRepository interface {
	Create(ctx context.Context, check domain.Check) (domain.Check, error)
	GetByToken(ctx context.Context, token string) (domain.Check, error)
	HasAny(ctx context.Context) (bool, error)

	// Debit decrements the check's remaining balance only when it covers
	// amount; it returns commons.ErrInsufficientBalance otherwise.
	Debit(ctx context.Context, checkID string, amount decimal.Decimal) error
}
