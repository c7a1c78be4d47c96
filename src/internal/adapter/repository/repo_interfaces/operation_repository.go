package repo_interfaces

import (
	"context"

	"github.com/api-sage/pos-payment-processor/src/internal/domain"
)

type OperationRepository interface {
	// CreatePending writes a new PENDING operation for op.AccountID, refusing
	// atomically with commons.ErrOperationPending when the account already has
	// one in flight. The pending check and the insert are one unit; callers
	// must not pre-check and then insert.
	CreatePending(ctx context.Context, op domain.Operation) (domain.Operation, error)
	HasPending(ctx context.Context, accountID string) (bool, error)
	UpdateStatus(ctx context.Context, operationID string, status domain.OperationStatus) error
	ListByAccountID(ctx context.Context, accountID string) ([]domain.Operation, error)
}
