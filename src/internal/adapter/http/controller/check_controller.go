package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/http/models"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
)

type CheckService interface {
	IssueCheck(ctx context.Context, req models.CreateCheckRequest) (commons.Response[models.CheckResponse], error)
	GetCheck(ctx context.Context, token string) (commons.Response[models.CheckResponse], error)
}

type CheckController struct {
	service CheckService
}

func NewCheckController(service CheckService) *CheckController {
	return &CheckController{service: service}
}

func (c *CheckController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handler := http.HandlerFunc(c.checks)
	if authMiddleware != nil {
		handler = authMiddleware(handler).ServeHTTP
	}

	mux.Handle("/payment/qr-check", http.HandlerFunc(handler))
}

func (c *CheckController) checks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.issueCheck(w, r)
	case http.MethodGet:
		c.getCheck(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, commons.ErrorResponse[models.CheckResponse]("method not allowed"))
	}
}

func (c *CheckController) issueCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.CheckResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.IssueCheck(r.Context(), req)
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status := http.StatusInternalServerError
		if response.Message == "validation failed" {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *CheckController) getCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	token := r.URL.Query().Get("token")

	response, err := c.service.GetCheck(r.Context(), token)
	if err != nil {
		status := http.StatusInternalServerError
		if response.Message == "validation failed" {
			status = http.StatusBadRequest
		}
		if response.Message == "Check not found" {
			status = http.StatusNotFound
		}
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
