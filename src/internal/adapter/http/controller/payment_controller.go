package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
)

type TransactionService interface {
	HandleTransaction(ctx context.Context, tx domain.BankTransaction) domain.TransactionResult
}

type PaymentController struct {
	service TransactionService
}

func NewPaymentController(service TransactionService) *PaymentController {
	return &PaymentController{service: service}
}

func (c *PaymentController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.transaction)
	if authMiddleware != nil {
		handler = authMiddleware(handler).ServeHTTP
	}

	mux.Handle("/payment/transaction", http.HandlerFunc(handler))
}

func (c *PaymentController) transaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		response := commons.ErrorResponse[models.TransactionResponse]("method not allowed")
		writeJSON(w, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		response := commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}

	result := c.service.HandleTransaction(r.Context(), req.ToBankTransaction())

	payload := models.TransactionResponse{
		Status:      string(result.Status),
		OperationID: result.OperationID,
		Message:     result.Message,
	}

	status := statusCodeFor(result.Status)
	var response commons.Response[models.TransactionResponse]
	if result.Status == domain.TransactionStatusSuccess {
		response = commons.SuccessResponse(result.Message, payload)
	} else {
		response = commons.Response[models.TransactionResponse]{
			Success: false,
			Message: result.Message,
			Data:    &payload,
		}
	}

	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func statusCodeFor(status domain.TransactionStatus) int {
	switch status {
	case domain.TransactionStatusSuccess:
		return http.StatusOK
	case domain.TransactionStatusAccountError,
		domain.TransactionStatusCardError,
		domain.TransactionStatusCheckError:
		return http.StatusNotFound
	case domain.TransactionStatusValidityDateError,
		domain.TransactionStatusInsufficientFunds,
		domain.TransactionStatusOperationPending,
		domain.TransactionStatusBankError:
		return http.StatusUnprocessableEntity
	case domain.TransactionStatusMeansOfPayment:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
