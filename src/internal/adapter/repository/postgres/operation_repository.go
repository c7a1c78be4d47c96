package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/lib/pq"
)

type OperationRepository struct {
	db *sql.DB
}

func NewOperationRepository(db *sql.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) CreatePending(ctx context.Context, op domain.Operation) (domain.Operation, error) {
	logger.Info("operation repository create pending", logger.Fields{
		"operationId":  op.ID,
		"operationRef": op.OperationRef,
		"accountId":    op.AccountID,
		"type":         op.Type,
	})

	// The WHERE NOT EXISTS clause and the partial unique index on
	// (account_id) WHERE status = 'PENDING' together make the guard check and
	// the insert one atomic unit.
	const query = `
INSERT INTO operations (
	id,
	operation_ref,
	label,
	amount,
	account_id,
	check_id,
	status,
	type,
	payment_method,
	executed_at
)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
WHERE NOT EXISTS (
	SELECT 1 FROM operations WHERE account_id = $5 AND status = $7
)
RETURNING created_at, updated_at`

	var checkID sql.NullString
	if op.CheckID != nil {
		checkID = sql.NullString{String: *op.CheckID, Valid: true}
	}

	op.Status = domain.OperationStatusPending
	if err := r.db.QueryRowContext(
		ctx,
		query,
		op.ID,
		op.OperationRef,
		op.Label,
		op.Amount,
		op.AccountID,
		checkID,
		op.Status,
		op.Type,
		op.PaymentMethod,
		op.ExecutedAt,
	).Scan(&op.CreatedAt, &op.UpdatedAt); err != nil {
		if err == sql.ErrNoRows || isUniqueViolation(err) {
			logger.Info("operation repository pending operation exists", logger.Fields{
				"accountId": op.AccountID,
			})
			return domain.Operation{}, commons.ErrOperationPending
		}
		logger.Error("operation repository create pending failed", err, logger.Fields{
			"operationId": op.ID,
			"accountId":   op.AccountID,
		})
		return domain.Operation{}, fmt.Errorf("create pending operation: %w", err)
	}

	return op, nil
}

func (r *OperationRepository) HasPending(ctx context.Context, accountID string) (bool, error) {
	const query = `
SELECT COUNT(1)
FROM operations
WHERE account_id = $1
  AND status = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, domain.OperationStatusPending).Scan(&count); err != nil {
		logger.Error("operation repository has pending failed", err, logger.Fields{
			"accountId": accountID,
		})
		return false, fmt.Errorf("check pending operation: %w", err)
	}

	return count > 0, nil
}

func (r *OperationRepository) UpdateStatus(ctx context.Context, operationID string, status domain.OperationStatus) error {
	logger.Info("operation repository update status", logger.Fields{
		"operationId": operationID,
		"status":      status,
	})

	const query = `
UPDATE operations
SET status = $2,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, operationID, status)
	if err != nil {
		logger.Error("operation repository update status failed", err, logger.Fields{
			"operationId": operationID,
			"status":      status,
		})
		return fmt.Errorf("update operation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update operation status rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}

	return nil
}

func (r *OperationRepository) ListByAccountID(ctx context.Context, accountID string) ([]domain.Operation, error) {
	const query = `
SELECT id,
       operation_ref,
       label,
       amount,
       account_id,
       check_id,
       status,
       type,
       payment_method,
       executed_at,
       created_at,
       updated_at
FROM operations
WHERE account_id = $1
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		logger.Error("operation repository list failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var operations []domain.Operation
	for rows.Next() {
		var (
			op      domain.Operation
			checkID sql.NullString
		)
		if err := rows.Scan(
			&op.ID,
			&op.OperationRef,
			&op.Label,
			&op.Amount,
			&op.AccountID,
			&checkID,
			&op.Status,
			&op.Type,
			&op.PaymentMethod,
			&op.ExecutedAt,
			&op.CreatedAt,
			&op.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if checkID.Valid {
			value := checkID.String
			op.CheckID = &value
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	return operations, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
