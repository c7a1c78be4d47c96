package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/checktoken"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	bankClientID   = "bank-operator"
	demoClientID   = "demo-individual"
	demoShopID     = "demo-shop"
	demoCheckValue = 500
	demoCheckDays  = 30
)

// Runner seeds the records the payment flow depends on: the bank operating
// account, a demo card holder, a demo shop and a default check. Every step is
// idempotent so restarts are safe.
type Runner struct {
	accountRepo      repo_interfaces.AccountRepository
	checkRepo        repo_interfaces.CheckRepository
	codec            *checktoken.Codec
	bankOrganisation string
}

func NewRunner(
	accountRepo repo_interfaces.AccountRepository,
	checkRepo repo_interfaces.CheckRepository,
	codec *checktoken.Codec,
	bankOrganisation string,
) *Runner {
	return &Runner{
		accountRepo:      accountRepo,
		checkRepo:        checkRepo,
		codec:            codec,
		bankOrganisation: bankOrganisation,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureBankAccount(ctx); err != nil {
		return err
	}
	if err := r.ensureDemoAccounts(ctx); err != nil {
		return err
	}
	return r.ensureDefaultCheck(ctx)
}

func (r *Runner) ensureBankAccount(ctx context.Context) error {
	_, err := r.accountRepo.GetByOrganisationName(ctx, r.bankOrganisation)
	if err == nil {
		return nil
	}
	if !errors.Is(err, commons.ErrRecordNotFound) {
		return fmt.Errorf("look up bank operating account: %w", err)
	}

	account := domain.Account{
		ID:         uuid.NewString(),
		ClientID:   bankClientID,
		ClientName: r.bankOrganisation,
		ClientKind: domain.ClientKindOrganisation,
		Balance:    decimal.NewFromInt(1_000_000),
	}
	if _, err := r.accountRepo.Create(ctx, account); err != nil {
		return fmt.Errorf("create bank operating account: %w", err)
	}

	logger.Info("seed created bank operating account", logger.Fields{
		"accountId":    account.ID,
		"organisation": r.bankOrganisation,
	})
	return nil
}

func (r *Runner) ensureDemoAccounts(ctx context.Context) error {
	if _, err := r.accountRepo.GetByClientID(ctx, demoClientID); errors.Is(err, commons.ErrRecordNotFound) {
		account := domain.Account{
			ID:         uuid.NewString(),
			ClientID:   demoClientID,
			ClientName: "Demo Individual",
			ClientKind: domain.ClientKindIndividual,
			Balance:    decimal.NewFromInt(1000),
			Card: &domain.Card{
				ID:        uuid.NewString(),
				ExpiresAt: time.Now().UTC().AddDate(2, 0, 0),
			},
		}
		if _, err := r.accountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("create demo individual account: %w", err)
		}
		logger.Info("seed created demo individual account", logger.Fields{
			"accountId": account.ID,
		})
	} else if err != nil {
		return fmt.Errorf("look up demo individual account: %w", err)
	}

	if _, err := r.accountRepo.GetByClientID(ctx, demoShopID); errors.Is(err, commons.ErrRecordNotFound) {
		account := domain.Account{
			ID:         uuid.NewString(),
			ClientID:   demoShopID,
			ClientName: "Demo Shop",
			ClientKind: domain.ClientKindMerchant,
			Balance:    decimal.Zero,
		}
		if _, err := r.accountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("create demo shop account: %w", err)
		}
		logger.Info("seed created demo shop account", logger.Fields{
			"accountId": account.ID,
		})
	} else if err != nil {
		return fmt.Errorf("look up demo shop account: %w", err)
	}

	return nil
}

func (r *Runner) ensureDefaultCheck(ctx context.Context) error {
	// Tokens carry a random nonce, so an existing default check cannot be
	// found by re-minting its token; seed only when no check exists at all.
	hasChecks, err := r.checkRepo.HasAny(ctx)
	if err != nil {
		return fmt.Errorf("look up existing checks: %w", err)
	}
	if hasChecks {
		return nil
	}

	createdAt := time.Now().UTC()
	token, err := r.codec.Encode(checktoken.Fields{
		Amount:           decimal.NewFromInt(demoCheckValue),
		NbDaysOfValidity: demoCheckDays,
		CreatedAt:        createdAt,
	})
	if err != nil {
		return fmt.Errorf("encode default check token: %w", err)
	}

	check := domain.Check{
		ID:               uuid.NewString(),
		Token:            token,
		Amount:           decimal.NewFromInt(demoCheckValue),
		RemainingBalance: decimal.NewFromInt(demoCheckValue),
		NbDaysOfValidity: demoCheckDays,
		CreatedAt:        createdAt,
	}
	if _, err := r.checkRepo.Create(ctx, check); err != nil {
		return fmt.Errorf("create default check: %w", err)
	}

	logger.Info("seed created default check", logger.Fields{
		"checkId": check.ID,
		"amount":  check.Amount,
	})
	return nil
}
