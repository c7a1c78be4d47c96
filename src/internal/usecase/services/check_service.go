package services

import (
	"context"
	"errors"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/checktoken"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/google/uuid"
)

// CheckService issues prepaid checks and answers token lookups. Rendering the
// token as a QR image is left to the terminal.
type CheckService struct {
	checkRepo repo_interfaces.CheckRepository
	codec     *checktoken.Codec
}

func NewCheckService(checkRepo repo_interfaces.CheckRepository, codec *checktoken.Codec) *CheckService {
	return &CheckService{
		checkRepo: checkRepo,
		codec:     codec,
	}
}

func (s *CheckService) IssueCheck(ctx context.Context, req models.CreateCheckRequest) (commons.Response[models.CheckResponse], error) {
	logger.Info("check service issue check request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.CheckResponse]("validation failed", err.Error()), err
	}

	createdAt := time.Now().UTC()
	token, err := s.codec.Encode(checktoken.Fields{
		Amount:           req.Amount,
		NbDaysOfValidity: req.NbDaysOfValidity,
		CreatedAt:        createdAt,
	})
	if err != nil {
		logger.Error("check service encode token failed", err, nil)
		return commons.ErrorResponse[models.CheckResponse]("failed to issue check", "Unable to issue check right now"), err
	}

	check := domain.Check{
		ID:               uuid.NewString(),
		Token:            token,
		Amount:           req.Amount,
		RemainingBalance: req.Amount,
		NbDaysOfValidity: req.NbDaysOfValidity,
		CreatedAt:        createdAt,
	}

	created, err := s.checkRepo.Create(ctx, check)
	if err != nil {
		logger.Error("check service create check failed", err, logger.Fields{
			"checkId": check.ID,
		})
		return commons.ErrorResponse[models.CheckResponse]("failed to issue check", "Unable to issue check right now"), err
	}

	logger.Info("check service issue check success", logger.Fields{
		"checkId": created.ID,
		"amount":  created.Amount,
	})

	return commons.SuccessResponse("Check issued", models.CheckResponse{
		Token:            created.Token,
		Amount:           created.Amount,
		RemainingBalance: created.RemainingBalance,
		ExpiresAt:        created.ExpiresAt(),
	}), nil
}

func (s *CheckService) GetCheck(ctx context.Context, token string) (commons.Response[models.CheckResponse], error) {
	if _, err := s.codec.Decode(token); err != nil {
		logger.Info("check service rejected invalid token", nil)
		return commons.ErrorResponse[models.CheckResponse]("validation failed", "check token is invalid"), err
	}

	check, err := s.checkRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return commons.ErrorResponse[models.CheckResponse]("Check not found"), err
		}
		logger.Error("check service get check failed", err, nil)
		return commons.ErrorResponse[models.CheckResponse]("failed to get check", "Unable to get check right now"), err
	}

	return commons.SuccessResponse("Check found", models.CheckResponse{
		Token:            check.Token,
		Amount:           check.Amount,
		RemainingBalance: check.RemainingBalance,
		ExpiresAt:        check.ExpiresAt(),
	}), nil
}
