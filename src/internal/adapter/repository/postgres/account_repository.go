package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id,
       client_id,
       client_name,
       client_kind,
       balance,
       card_id,
       card_expires_at,
       created_at,
       updated_at`

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"accountId":  account.ID,
		"clientId":   account.ClientID,
		"clientKind": account.ClientKind,
	})

	const query = `
INSERT INTO accounts (
	id,
	client_id,
	client_name,
	client_kind,
	balance,
	card_id,
	card_expires_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
RETURNING created_at, updated_at`

	var (
		cardID        sql.NullString
		cardExpiresAt sql.NullTime
	)
	if account.Card != nil {
		cardID = sql.NullString{String: account.Card.ID, Valid: true}
		cardExpiresAt = sql.NullTime{Time: account.Card.ExpiresAt, Valid: true}
	}

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.ID,
		account.ClientID,
		account.ClientName,
		account.ClientKind,
		account.Balance,
		cardID,
		cardExpiresAt,
	).Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByCardID(ctx context.Context, cardID string) (domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE card_id = $1`

	return r.scanAccount(r.db.QueryRowContext(ctx, query, cardID), "cardId", cardID)
}

func (r *AccountRepository) GetByClientID(ctx context.Context, clientID string) (domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE client_id = $1`

	return r.scanAccount(r.db.QueryRowContext(ctx, query, clientID), "clientId", clientID)
}

func (r *AccountRepository) GetByOrganisationName(ctx context.Context, name string) (domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE client_kind = $1
  AND client_name = $2`

	return r.scanAccount(r.db.QueryRowContext(ctx, query, domain.ClientKindOrganisation, name), "organisation", name)
}

func (r *AccountRepository) Debit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	logger.Info("account repository debit", logger.Fields{
		"accountId": accountID,
		"amount":    amount,
	})

	const query = `
UPDATE accounts
SET balance = balance - $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND balance >= $2::numeric`

	result, err := r.db.ExecContext(ctx, query, accountID, amount)
	if err != nil {
		logger.Error("account repository debit failed", err, logger.Fields{
			"accountId": accountID,
		})
		return fmt.Errorf("debit account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrInsufficientBalance
	}

	return nil
}

func (r *AccountRepository) Credit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	logger.Info("account repository credit", logger.Fields{
		"accountId": accountID,
		"amount":    amount,
	})

	const query = `
UPDATE accounts
SET balance = balance + $2::numeric,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID, amount)
	if err != nil {
		logger.Error("account repository credit failed", err, logger.Fields{
			"accountId": accountID,
		})
		return fmt.Errorf("credit account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrRecordNotFound
	}

	return nil
}

func (r *AccountRepository) scanAccount(row *sql.Row, lookupKey, lookupValue string) (domain.Account, error) {
	var (
		account       domain.Account
		cardID        sql.NullString
		cardExpiresAt sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&account.ID,
		&account.ClientID,
		&account.ClientName,
		&account.ClientKind,
		&account.Balance,
		&cardID,
		&cardExpiresAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			logger.Info("account repository record not found", logger.Fields{
				lookupKey: lookupValue,
			})
			return domain.Account{}, commons.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			lookupKey: lookupValue,
		})
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}

	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	if cardID.Valid && cardExpiresAt.Valid {
		account.Card = &domain.Card{
			ID:        cardID.String,
			ExpiresAt: cardExpiresAt.Time,
		}
	}

	return account, nil
}
