package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/checktoken"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/events"
	"github.com/api-sage/pos-payment-processor/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBankOrganisation = "CashManagerBank"

type fixture struct {
	store *memory.Store
	codec *checktoken.Codec
	payer domain.Account
	shop  domain.Account
	bank  domain.Account
}

func newFixture(t *testing.T, payerBalance int64) *fixture {
	t.Helper()

	codec, err := checktoken.NewCodec("unit-test-secret")
	require.NoError(t, err)

	store := memory.NewStore()
	accounts := store.Accounts()

	payer, err := accounts.Create(context.Background(), domain.Account{
		ID:         uuid.NewString(),
		ClientID:   "client-payer",
		ClientName: "Payer",
		ClientKind: domain.ClientKindIndividual,
		Balance:    decimal.NewFromInt(payerBalance),
		Card: &domain.Card{
			ID:        uuid.NewString(),
			ExpiresAt: time.Now().UTC().AddDate(1, 0, 0),
		},
	})
	require.NoError(t, err)

	shop, err := accounts.Create(context.Background(), domain.Account{
		ID:         uuid.NewString(),
		ClientID:   "client-shop",
		ClientName: "Shop",
		ClientKind: domain.ClientKindMerchant,
		Balance:    decimal.Zero,
	})
	require.NoError(t, err)

	bank, err := accounts.Create(context.Background(), domain.Account{
		ID:         uuid.NewString(),
		ClientID:   "bank-operator",
		ClientName: testBankOrganisation,
		ClientKind: domain.ClientKindOrganisation,
		Balance:    decimal.NewFromInt(10_000),
	})
	require.NoError(t, err)

	return &fixture{
		store: store,
		codec: codec,
		payer: payer,
		shop:  shop,
		bank:  bank,
	}
}

func (f *fixture) service() *services.TransactionService {
	return services.NewTransactionService(
		f.store.Accounts(),
		f.store.Checks(),
		f.store.Operations(),
		f.codec,
		events.NoopPublisher{},
		testBankOrganisation,
		5*time.Second,
	)
}

func (f *fixture) mintCheck(t *testing.T, amount int64, validityDays int, createdAt time.Time) domain.Check {
	t.Helper()

	token, err := f.codec.Encode(checktoken.Fields{
		Amount:           decimal.NewFromInt(amount),
		NbDaysOfValidity: validityDays,
		CreatedAt:        createdAt,
	})
	require.NoError(t, err)

	check, err := f.store.Checks().Create(context.Background(), domain.Check{
		ID:               uuid.NewString(),
		Token:            token,
		Amount:           decimal.NewFromInt(amount),
		RemainingBalance: decimal.NewFromInt(amount),
		NbDaysOfValidity: validityDays,
		CreatedAt:        createdAt,
	})
	require.NoError(t, err)
	return check
}

func (f *fixture) balanceOf(t *testing.T, clientID string) decimal.Decimal {
	t.Helper()
	account, err := f.store.Accounts().GetByClientID(context.Background(), clientID)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) operationsOf(t *testing.T, accountID string) []domain.Operation {
	t.Helper()
	operations, err := f.store.Operations().ListByAccountID(context.Background(), accountID)
	require.NoError(t, err)
	return operations
}

func cardTransaction(f *fixture, amount int64) domain.BankTransaction {
	return domain.BankTransaction{
		OperationID:   uuid.NewString(),
		Amount:        decimal.NewFromInt(amount),
		CardID:        f.payer.Card.ID,
		PaymentMethod: domain.PaymentMethodCard,
		ShopID:        f.shop.ClientID,
		Label:         "Coffee and pastries",
		Date:          time.Now().UTC(),
	}
}

func checkTransaction(f *fixture, token string, amount int64) domain.BankTransaction {
	return domain.BankTransaction{
		OperationID:   uuid.NewString(),
		Amount:        decimal.NewFromInt(amount),
		CheckToken:    token,
		PaymentMethod: domain.PaymentMethodCheck,
		ShopID:        f.shop.ClientID,
		Label:         "Prepaid check payment",
		Date:          time.Now().UTC(),
	}
}

func TestHandleTransactionCardSuccess(t *testing.T) {
	f := newFixture(t, 100)
	svc := f.service()

	tx := cardTransaction(f, 40)
	result := svc.HandleTransaction(context.Background(), tx)

	assert.Equal(t, domain.TransactionStatusSuccess, result.Status)
	assert.Equal(t, tx.OperationID, result.OperationID)

	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(60)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.NewFromInt(40)))

	payerOps := f.operationsOf(t, f.payer.ID)
	require.Len(t, payerOps, 1)
	assert.Equal(t, domain.OperationTypeWithdraw, payerOps[0].Type)
	assert.Equal(t, domain.OperationStatusClosed, payerOps[0].Status)
	assert.Equal(t, tx.OperationID, payerOps[0].OperationRef)

	shopOps := f.operationsOf(t, f.shop.ID)
	require.Len(t, shopOps, 1)
	assert.Equal(t, domain.OperationTypeDeposit, shopOps[0].Type)
	assert.Equal(t, domain.OperationStatusClosed, shopOps[0].Status)
}

func TestHandleTransactionExpiredCard(t *testing.T) {
	f := newFixture(t, 100)

	expired, err := f.store.Accounts().Create(context.Background(), domain.Account{
		ID:         uuid.NewString(),
		ClientID:   "client-expired",
		ClientName: "Expired Card Holder",
		ClientKind: domain.ClientKindIndividual,
		Balance:    decimal.NewFromInt(100),
		Card: &domain.Card{
			ID:        uuid.NewString(),
			ExpiresAt: time.Now().UTC().AddDate(0, 0, -1),
		},
	})
	require.NoError(t, err)

	svc := f.service()
	tx := cardTransaction(f, 40)
	tx.CardID = expired.Card.ID

	result := svc.HandleTransaction(context.Background(), tx)

	assert.Equal(t, domain.TransactionStatusValidityDateError, result.Status)
	assert.True(t, f.balanceOf(t, "client-expired").Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.Zero))
	assert.Empty(t, f.operationsOf(t, expired.ID))
}

func TestHandleTransactionUnknownCard(t *testing.T) {
	f := newFixture(t, 100)
	svc := f.service()

	tx := cardTransaction(f, 40)
	tx.CardID = "no-such-card"

	result := svc.HandleTransaction(context.Background(), tx)

	assert.Equal(t, domain.TransactionStatusAccountError, result.Status)
	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(100)))
}

func TestHandleTransactionUnsupportedMethod(t *testing.T) {
	f := newFixture(t, 100)
	svc := f.service()

	tx := cardTransaction(f, 40)
	tx.PaymentMethod = domain.PaymentMethod("WIRE")

	result := svc.HandleTransaction(context.Background(), tx)

	assert.Equal(t, domain.TransactionStatusMeansOfPayment, result.Status)
}

func TestHandleTransactionCheckSuccess(t *testing.T) {
	f := newFixture(t, 100)
	check := f.mintCheck(t, 500, 30, time.Now().UTC())
	svc := f.service()

	result := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 120))

	assert.Equal(t, domain.TransactionStatusSuccess, result.Status)

	updated, err := f.store.Checks().GetByToken(context.Background(), check.Token)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(decimal.NewFromInt(380)))

	assert.True(t, f.balanceOf(t, "bank-operator").Equal(decimal.NewFromInt(9880)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.NewFromInt(120)))
}

func TestHandleTransactionCheckInsufficientFunds(t *testing.T) {
	f := newFixture(t, 100)
	check := f.mintCheck(t, 20, 30, time.Now().UTC())
	svc := f.service()

	result := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 50))

	assert.Equal(t, domain.TransactionStatusInsufficientFunds, result.Status)

	updated, err := f.store.Checks().GetByToken(context.Background(), check.Token)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(decimal.NewFromInt(20)))

	for _, op := range f.operationsOf(t, f.bank.ID) {
		assert.NotEqual(t, domain.OperationStatusClosed, op.Status)
	}
}

func TestHandleTransactionExpiredCheck(t *testing.T) {
	f := newFixture(t, 100)
	check := f.mintCheck(t, 500, 30, time.Now().UTC().AddDate(0, 0, -45))
	svc := f.service()

	result := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 50))

	assert.Equal(t, domain.TransactionStatusValidityDateError, result.Status)
	assert.True(t, f.balanceOf(t, "bank-operator").Equal(decimal.NewFromInt(10_000)))
}

func TestHandleTransactionTamperedCheckToken(t *testing.T) {
	f := newFixture(t, 100)
	f.mintCheck(t, 500, 30, time.Now().UTC())
	svc := f.service()

	result := svc.HandleTransaction(context.Background(), checkTransaction(f, "not-a-real-token", 50))

	assert.Equal(t, domain.TransactionStatusCheckError, result.Status)
}

func TestHandleTransactionGuardRejectsPendingAccount(t *testing.T) {
	f := newFixture(t, 100)
	svc := f.service()

	_, err := f.store.Operations().CreatePending(context.Background(), domain.Operation{
		ID:            uuid.NewString(),
		OperationRef:  uuid.NewString(),
		Label:         "In-flight payment",
		Amount:        decimal.NewFromInt(10),
		AccountID:     f.payer.ID,
		Type:          domain.OperationTypeWithdraw,
		PaymentMethod: domain.PaymentMethodCard,
		ExecutedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	result := svc.HandleTransaction(context.Background(), cardTransaction(f, 40))

	assert.Equal(t, domain.TransactionStatusOperationPending, result.Status)
	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(100)))
	// Guard-before-write: the rejected transaction must not add operations.
	assert.Len(t, f.operationsOf(t, f.payer.ID), 1)
}

func TestHandleTransactionInsufficientBalanceCancelsWithdraw(t *testing.T) {
	f := newFixture(t, 30)
	svc := f.service()

	result := svc.HandleTransaction(context.Background(), cardTransaction(f, 40))

	assert.Equal(t, domain.TransactionStatusInsufficientFunds, result.Status)
	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(30)))

	payerOps := f.operationsOf(t, f.payer.ID)
	require.Len(t, payerOps, 1)
	assert.Equal(t, domain.OperationStatusCanceled, payerOps[0].Status)
}

func TestHandleTransactionFailurePathsAreRepeatable(t *testing.T) {
	f := newFixture(t, 100)
	check := f.mintCheck(t, 20, 30, time.Now().UTC())
	svc := f.service()

	first := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 50))
	second := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 50))

	assert.Equal(t, domain.TransactionStatusInsufficientFunds, first.Status)
	assert.Equal(t, first.Status, second.Status)

	updated, err := f.store.Checks().GetByToken(context.Background(), check.Token)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(decimal.NewFromInt(20)))
	assert.True(t, f.balanceOf(t, "bank-operator").Equal(decimal.NewFromInt(10_000)))
}

// staleReadChecks wraps the check repository and reports an outdated
// remaining balance on reads, the state a coordinator sees when another
// terminal spends against the same check between its read and its debit.
type staleReadChecks struct {
	repo_interfaces.CheckRepository
	reportedRemaining decimal.Decimal
}

func (s *staleReadChecks) GetByToken(ctx context.Context, token string) (domain.Check, error) {
	check, err := s.CheckRepository.GetByToken(ctx, token)
	if err != nil {
		return domain.Check{}, err
	}
	check.RemainingBalance = s.reportedRemaining
	return check, nil
}

func TestHandleTransactionCheckSpentConcurrently(t *testing.T) {
	f := newFixture(t, 100)
	check := f.mintCheck(t, 100, 30, time.Now().UTC())

	// Another terminal draws the check down to 20, but this coordinator still
	// reads the original 100.
	require.NoError(t, f.store.Checks().Debit(context.Background(), check.ID, decimal.NewFromInt(80)))

	svc := services.NewTransactionService(
		f.store.Accounts(),
		&staleReadChecks{CheckRepository: f.store.Checks(), reportedRemaining: decimal.NewFromInt(100)},
		f.store.Operations(),
		f.codec,
		events.NoopPublisher{},
		testBankOrganisation,
		5*time.Second,
	)

	result := svc.HandleTransaction(context.Background(), checkTransaction(f, check.Token, 50))

	assert.Equal(t, domain.TransactionStatusInsufficientFunds, result.Status)

	// Nothing moved: the bank balance and the check are untouched, and the
	// withdraw operation is settled as CANCELED.
	assert.True(t, f.balanceOf(t, "bank-operator").Equal(decimal.NewFromInt(10_000)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.Zero))

	updated, err := f.store.Checks().GetByToken(context.Background(), check.Token)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(decimal.NewFromInt(20)))

	bankOps := f.operationsOf(t, f.bank.ID)
	require.Len(t, bankOps, 1)
	assert.Equal(t, domain.OperationStatusCanceled, bankOps[0].Status)
}

func TestHandleTransactionRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, 100)
	svc := f.service()

	for _, amount := range []int64{0, -25} {
		result := svc.HandleTransaction(context.Background(), cardTransaction(f, amount))
		assert.Equal(t, domain.TransactionStatusFailed, result.Status)
	}

	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.Zero))
	assert.Empty(t, f.operationsOf(t, f.payer.ID))
}

// failingCreditAccounts wraps the account repository and fails every credit
// against one account, to drive the deposit leg into failure after the payer
// leg settled.
type failingCreditAccounts struct {
	repo_interfaces.AccountRepository
	failAccountID string
}

func (f *failingCreditAccounts) Credit(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if accountID == f.failAccountID {
		return errors.New("credit rejected by store")
	}
	return f.AccountRepository.Credit(ctx, accountID, amount)
}

func TestHandleTransactionDepositFailureKeepsWithdrawClosed(t *testing.T) {
	f := newFixture(t, 100)

	svc := services.NewTransactionService(
		&failingCreditAccounts{AccountRepository: f.store.Accounts(), failAccountID: f.shop.ID},
		f.store.Checks(),
		f.store.Operations(),
		f.codec,
		events.NoopPublisher{},
		testBankOrganisation,
		5*time.Second,
	)

	result := svc.HandleTransaction(context.Background(), cardTransaction(f, 40))

	assert.Equal(t, domain.TransactionStatusPaymentError, result.Status)

	// Payer leg stays settled and debited; only the deposit leg is canceled.
	assert.True(t, f.balanceOf(t, "client-payer").Equal(decimal.NewFromInt(60)))
	assert.True(t, f.balanceOf(t, "client-shop").Equal(decimal.Zero))

	payerOps := f.operationsOf(t, f.payer.ID)
	require.Len(t, payerOps, 1)
	assert.Equal(t, domain.OperationStatusClosed, payerOps[0].Status)

	shopOps := f.operationsOf(t, f.shop.ID)
	require.Len(t, shopOps, 1)
	assert.Equal(t, domain.OperationStatusCanceled, shopOps[0].Status)
}
