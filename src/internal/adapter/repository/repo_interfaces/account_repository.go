package repo_interfaces

import (
	"context"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByCardID(ctx context.Context, cardID string) (domain.Account, error)
	GetByClientID(ctx context.Context, clientID string) (domain.Account, error)
	GetByOrganisationName(ctx context.Context, name string) (domain.Account, error)

	// Debit subtracts amount from the account balance only when the balance
	// covers it; it returns commons.ErrInsufficientBalance otherwise. The
	// update is a single conditional write so concurrent debits cannot take
	// the balance negative.
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) error
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) error
}
