package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/google/uuid"
)

type AccountService struct {
	accountRepo   repo_interfaces.AccountRepository
	operationRepo repo_interfaces.OperationRepository
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	operationRepo repo_interfaces.OperationRepository,
) *AccountService {
	return &AccountService{
		accountRepo:   accountRepo,
		operationRepo: operationRepo,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account := domain.Account{
		ID:         uuid.NewString(),
		ClientID:   strings.TrimSpace(req.ClientID),
		ClientName: strings.TrimSpace(req.ClientName),
		ClientKind: domain.ClientKind(strings.ToUpper(strings.TrimSpace(req.ClientKind))),
		Balance:    req.InitialBalance,
	}
	if req.CardExpiresAt != nil {
		account.Card = &domain.Card{
			ID:        uuid.NewString(),
			ExpiresAt: *req.CardExpiresAt,
		}
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account failed", err, logger.Fields{
			"clientId": account.ClientID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	logger.Info("account service create account success", logger.Fields{
		"accountId": created.ID,
		"clientId":  created.ClientID,
	})

	return commons.SuccessResponse("Account created", mapAccountToResponse(created, nil)), nil
}

func (s *AccountService) GetAccount(ctx context.Context, clientID string) (commons.Response[models.AccountResponse], error) {
	trimmed := strings.TrimSpace(clientID)
	if trimmed == "" {
		err := errors.New("clientId is required")
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByClientID(ctx, trimmed)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"clientId": trimmed,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to get account right now"), err
	}

	operations, err := s.operationRepo.ListByAccountID(ctx, account.ID)
	if err != nil {
		logger.Error("account service list operations failed", err, logger.Fields{
			"accountId": account.ID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to get account right now"), err
	}

	return commons.SuccessResponse("Account found", mapAccountToResponse(account, operations)), nil
}

func mapAccountToResponse(account domain.Account, operations []domain.Operation) models.AccountResponse {
	response := models.AccountResponse{
		ID:         account.ID,
		ClientID:   account.ClientID,
		ClientName: account.ClientName,
		ClientKind: string(account.ClientKind),
		Balance:    account.Balance,
	}
	if account.Card != nil {
		response.CardID = account.Card.ID
	}

	for _, op := range operations {
		response.Operations = append(response.Operations, models.OperationResponse{
			ID:            op.ID,
			OperationRef:  op.OperationRef,
			Label:         op.Label,
			Amount:        op.Amount,
			Status:        string(op.Status),
			Type:          string(op.Type),
			PaymentMethod: string(op.PaymentMethod),
			ExecutedAt:    op.ExecutedAt,
		})
	}

	return response
}
