package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/shopspring/decimal"
)

type CheckRepository struct {
	db *sql.DB
}

func NewCheckRepository(db *sql.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

func (r *CheckRepository) Create(ctx context.Context, check domain.Check) (domain.Check, error) {
	logger.Info("check repository create", logger.Fields{
		"checkId": check.ID,
		"amount":  check.Amount,
	})

	const query = `
INSERT INTO checks (
	id,
	token,
	amount,
	remaining_balance,
	nb_days_validity
) VALUES (
	$1, $2, $3, $4, $5
)
RETURNING created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		check.ID,
		check.Token,
		check.Amount,
		check.RemainingBalance,
		check.NbDaysOfValidity,
	).Scan(&check.CreatedAt, &check.UpdatedAt); err != nil {
		logger.Error("check repository create failed", err, logger.Fields{
			"checkId": check.ID,
		})
		return domain.Check{}, fmt.Errorf("create check: %w", err)
	}

	return check, nil
}

func (r *CheckRepository) GetByToken(ctx context.Context, token string) (domain.Check, error) {
	const query = `
SELECT id,
       token,
       amount,
       remaining_balance,
       nb_days_validity,
       created_at,
       updated_at
FROM checks
WHERE token = $1`

	var check domain.Check
	if err := r.db.QueryRowContext(ctx, query, token).Scan(
		&check.ID,
		&check.Token,
		&check.Amount,
		&check.RemainingBalance,
		&check.NbDaysOfValidity,
		&check.CreatedAt,
		&check.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			logger.Info("check repository record not found", nil)
			return domain.Check{}, commons.ErrRecordNotFound
		}
		logger.Error("check repository get failed", err, nil)
		return domain.Check{}, fmt.Errorf("get check: %w", err)
	}

	return check, nil
}

func (r *CheckRepository) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM checks)`).Scan(&exists); err != nil {
		logger.Error("check repository has any failed", err, nil)
		return false, fmt.Errorf("check existing checks: %w", err)
	}
	return exists, nil
}

func (r *CheckRepository) Debit(ctx context.Context, checkID string, amount decimal.Decimal) error {
	logger.Info("check repository debit", logger.Fields{
		"checkId": checkID,
		"amount":  amount,
	})

	const query = `
UPDATE checks
SET remaining_balance = remaining_balance - $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND remaining_balance >= $2::numeric`

	result, err := r.db.ExecContext(ctx, query, checkID, amount)
	if err != nil {
		logger.Error("check repository debit failed", err, logger.Fields{
			"checkId": checkID,
		})
		return fmt.Errorf("debit check: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit check rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrInsufficientBalance
	}

	return nil
}
