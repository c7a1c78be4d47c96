package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/memory"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/usecase/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*services.AccountService, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	return services.NewAccountService(store.Accounts(), store.Operations()), store
}

func TestCreateAccountWithCard(t *testing.T) {
	svc, store := newAccountService(t)

	expiry := time.Now().UTC().AddDate(2, 0, 0)
	response, err := svc.CreateAccount(context.Background(), models.CreateAccountRequest{
		ClientID:       "client-42",
		ClientName:     "Ada",
		ClientKind:     "individual",
		InitialBalance: decimal.NewFromInt(250),
		CardExpiresAt:  &expiry,
	})
	require.NoError(t, err)
	require.True(t, response.Success)
	require.NotNil(t, response.Data)
	assert.NotEmpty(t, response.Data.CardID)
	assert.Equal(t, "INDIVIDUAL", response.Data.ClientKind)

	stored, err := store.Accounts().GetByClientID(context.Background(), "client-42")
	require.NoError(t, err)
	require.NotNil(t, stored.Card)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(250)))
}

func TestCreateAccountRejectsInvalidRequest(t *testing.T) {
	svc, _ := newAccountService(t)

	cases := []struct {
		name    string
		request models.CreateAccountRequest
	}{
		{"missing client id", models.CreateAccountRequest{ClientName: "Ada", ClientKind: "INDIVIDUAL"}},
		{"missing client name", models.CreateAccountRequest{ClientID: "c1", ClientKind: "INDIVIDUAL"}},
		{"unknown kind", models.CreateAccountRequest{ClientID: "c1", ClientName: "Ada", ClientKind: "GOVERNMENT"}},
		{"negative balance", models.CreateAccountRequest{
			ClientID: "c1", ClientName: "Ada", ClientKind: "INDIVIDUAL",
			InitialBalance: decimal.NewFromInt(-1),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			response, err := svc.CreateAccount(context.Background(), tc.request)
			assert.Error(t, err)
			assert.False(t, response.Success)
		})
	}
}

func TestCreateAccountRejectsDuplicateClient(t *testing.T) {
	svc, _ := newAccountService(t)

	request := models.CreateAccountRequest{
		ClientID:   "client-dup",
		ClientName: "Ada",
		ClientKind: "MERCHANT",
	}

	_, err := svc.CreateAccount(context.Background(), request)
	require.NoError(t, err)

	response, err := svc.CreateAccount(context.Background(), request)
	assert.Error(t, err)
	assert.False(t, response.Success)
}

func TestGetAccountIncludesOperations(t *testing.T) {
	svc, store := newAccountService(t)

	created, err := svc.CreateAccount(context.Background(), models.CreateAccountRequest{
		ClientID:   "client-ops",
		ClientName: "Shop",
		ClientKind: "MERCHANT",
	})
	require.NoError(t, err)

	op, err := store.Operations().CreatePending(context.Background(), domain.Operation{
		ID:            uuid.NewString(),
		OperationRef:  uuid.NewString(),
		Label:         "Card payment",
		Amount:        decimal.NewFromInt(15),
		AccountID:     created.Data.ID,
		Type:          domain.OperationTypeDeposit,
		PaymentMethod: domain.PaymentMethodCard,
		ExecutedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Operations().UpdateStatus(context.Background(), op.ID, domain.OperationStatusClosed))

	response, err := svc.GetAccount(context.Background(), "client-ops")
	require.NoError(t, err)
	require.NotNil(t, response.Data)
	require.Len(t, response.Data.Operations, 1)
	assert.Equal(t, "CLOSED", response.Data.Operations[0].Status)
	assert.Equal(t, op.OperationRef, response.Data.Operations[0].OperationRef)
}

func TestGetAccountNotFound(t *testing.T) {
	svc, _ := newAccountService(t)

	response, err := svc.GetAccount(context.Background(), "nobody")
	assert.Error(t, err)
	assert.False(t, response.Success)
	assert.Equal(t, "Account not found", response.Message)
}

func TestGetAccountRequiresClientID(t *testing.T) {
	svc, _ := newAccountService(t)

	response, err := svc.GetAccount(context.Background(), "   ")
	assert.Error(t, err)
	assert.False(t, response.Success)
}
