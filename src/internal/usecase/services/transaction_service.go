package services

import (
	"context"
	"errors"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/pos-payment-processor/src/internal/checktoken"
	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/api-sage/pos-payment-processor/src/internal/events"
	"github.com/api-sage/pos-payment-processor/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService coordinates a payment: resolve the payer instrument,
// validate it, debit the payer, credit the shop, and settle both operation
// records. Every failure is normalized into a TransactionResult; no error
// escapes HandleTransaction.
type TransactionService struct {
	accountRepo      repo_interfaces.AccountRepository
	checkRepo        repo_interfaces.CheckRepository
	operationRepo    repo_interfaces.OperationRepository
	validator        *InstrumentValidator
	codec            *checktoken.Codec
	publisher        events.Publisher
	bankOrganisation string
	ledgerTimeout    time.Duration
}

func NewTransactionService(
	accountRepo repo_interfaces.AccountRepository,
	checkRepo repo_interfaces.CheckRepository,
	operationRepo repo_interfaces.OperationRepository,
	codec *checktoken.Codec,
	publisher events.Publisher,
	bankOrganisation string,
	ledgerTimeout time.Duration,
) *TransactionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if ledgerTimeout <= 0 {
		ledgerTimeout = 10 * time.Second
	}

	return &TransactionService{
		accountRepo:      accountRepo,
		checkRepo:        checkRepo,
		operationRepo:    operationRepo,
		validator:        NewInstrumentValidator(bankOrganisation),
		codec:            codec,
		publisher:        publisher,
		bankOrganisation: bankOrganisation,
		ledgerTimeout:    ledgerTimeout,
	}
}

func (s *TransactionService) HandleTransaction(ctx context.Context, tx domain.BankTransaction) domain.TransactionResult {
	logger.Info("transaction service handle transaction", logger.Fields{
		"operationRef":  tx.OperationID,
		"paymentMethod": tx.PaymentMethod,
		"shopId":        tx.ShopID,
		"amount":        tx.Amount,
	})

	ctx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	if err := s.process(ctx, tx); err != nil {
		var txErr *domain.TransactionError
		if errors.As(err, &txErr) {
			logger.Info("transaction service transaction rejected", logger.Fields{
				"operationRef": tx.OperationID,
				"status":       txErr.Status,
				"message":      txErr.Message,
			})
			return domain.TransactionResult{
				Status:      txErr.Status,
				OperationID: tx.OperationID,
				Message:     txErr.Message,
			}
		}

		logger.Error("transaction service transaction failed", err, logger.Fields{
			"operationRef": tx.OperationID,
		})
		return domain.TransactionResult{
			Status:      domain.TransactionStatusFailed,
			OperationID: tx.OperationID,
			Message:     err.Error(),
		}
	}

	logger.Info("transaction service transaction success", logger.Fields{
		"operationRef": tx.OperationID,
	})
	return domain.TransactionResult{
		Status:      domain.TransactionStatusSuccess,
		OperationID: tx.OperationID,
		Message:     "Payment has been validated",
	}
}

func (s *TransactionService) process(ctx context.Context, tx domain.BankTransaction) error {
	// The HTTP model validates this too, but the coordinator must not trust
	// its callers: a non-positive amount would turn the conditional debits
	// into credits.
	if tx.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.NewTransactionError(domain.TransactionStatusFailed, tx.OperationID, "Amount must be greater than zero")
	}

	now := time.Now().UTC()

	payerAccount, check, err := s.resolvePayer(ctx, tx)
	if err != nil {
		return err
	}

	if vErr := s.validator.Validate(payerAccount, check, tx, now); vErr != nil {
		return vErr
	}

	// Fast-path rejection. Correctness does not rely on this read: the
	// CreatePending write below refuses atomically when another operation
	// slipped in between.
	pending, err := s.operationRepo.HasPending(ctx, payerAccount.ID)
	if err != nil {
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}
	if pending {
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}

	withdrawOp, err := s.operationRepo.CreatePending(ctx, s.newOperation(tx, payerAccount.ID, check, domain.OperationTypeWithdraw))
	if err != nil {
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}

	if payerAccount.Balance.LessThan(tx.Amount) {
		s.cancelOperation(ctx, withdrawOp.ID)
		return domain.NewTransactionError(domain.TransactionStatusInsufficientFunds, tx.OperationID, "Insufficient funds")
	}

	// The guard covers the payer account, not the check; another terminal may
	// have spent against the same check since the validator read it. Re-read
	// the remaining balance before any funds move.
	if check != nil {
		current, err := s.checkRepo.GetByToken(ctx, check.Token)
		if err != nil {
			s.cancelOperation(ctx, withdrawOp.ID)
			if errors.Is(err, commons.ErrRecordNotFound) {
				return domain.NewTransactionError(domain.TransactionStatusCheckError, tx.OperationID, "Check not found")
			}
			return domain.NewTransactionError(domain.TransactionStatusPaymentError, tx.OperationID, "Payment error was occurred")
		}
		if current.RemainingBalance.LessThan(tx.Amount) {
			s.cancelOperation(ctx, withdrawOp.ID)
			return domain.NewTransactionError(domain.TransactionStatusInsufficientFunds, tx.OperationID, "Insufficient funds")
		}
		check = &current
	}

	if err := s.accountRepo.Debit(ctx, payerAccount.ID, tx.Amount); err != nil {
		s.cancelOperation(ctx, withdrawOp.ID)
		if errors.Is(err, commons.ErrInsufficientBalance) {
			return domain.NewTransactionError(domain.TransactionStatusInsufficientFunds, tx.OperationID, "Insufficient funds")
		}
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}

	// The check debit belongs to the withdraw leg: it must land before the
	// operation is CLOSED. Its conditional write is the backstop against a
	// spend that raced past the re-read above; on refusal the payer debit is
	// reverted so nothing has moved.
	if check != nil {
		if err := s.checkRepo.Debit(ctx, check.ID, tx.Amount); err != nil {
			if cErr := s.accountRepo.Credit(ctx, payerAccount.ID, tx.Amount); cErr != nil {
				logger.Error("transaction service revert payer debit failed", cErr, logger.Fields{
					"accountId":    payerAccount.ID,
					"operationRef": tx.OperationID,
				})
			}
			s.cancelOperation(ctx, withdrawOp.ID)
			if errors.Is(err, commons.ErrInsufficientBalance) {
				return domain.NewTransactionError(domain.TransactionStatusInsufficientFunds, tx.OperationID, "Insufficient funds")
			}
			logger.Error("transaction service debit check failed", err, logger.Fields{
				"checkId":      check.ID,
				"operationRef": tx.OperationID,
			})
			return domain.NewTransactionError(domain.TransactionStatusPaymentError, tx.OperationID, "Payment error was occurred")
		}
	}

	if err := s.operationRepo.UpdateStatus(ctx, withdrawOp.ID, domain.OperationStatusClosed); err != nil {
		logger.Error("transaction service close withdraw operation failed", err, logger.Fields{
			"operationId":  withdrawOp.ID,
			"operationRef": tx.OperationID,
		})
		return domain.NewTransactionError(domain.TransactionStatusPaymentError, tx.OperationID, "Payment error was occurred")
	}

	shopAccount, err := s.accountRepo.GetByClientID(ctx, tx.ShopID)
	if err != nil {
		if errors.Is(err, commons.ErrRecordNotFound) {
			return domain.NewTransactionError(domain.TransactionStatusAccountError, tx.OperationID, "Shop account not found")
		}
		return err
	}

	depositOp, err := s.operationRepo.CreatePending(ctx, s.newOperation(tx, shopAccount.ID, check, domain.OperationTypeDeposit))
	if err != nil {
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}

	if err := s.accountRepo.Credit(ctx, shopAccount.ID, tx.Amount); err != nil {
		// The payer leg is already CLOSED and debited at this point. The
		// deposit operation is canceled and the mismatch left for
		// reconciliation; both legs stay visible in the operation ledger.
		s.cancelOperation(ctx, depositOp.ID)
		logger.Error("transaction service credit shop failed after payer debit", err, logger.Fields{
			"withdrawOperationId": withdrawOp.ID,
			"depositOperationId":  depositOp.ID,
			"operationRef":        tx.OperationID,
			"shopAccountId":       shopAccount.ID,
		})
		return domain.NewTransactionError(domain.TransactionStatusPaymentError, tx.OperationID, "Payment error was occurred")
	}

	if err := s.operationRepo.UpdateStatus(ctx, depositOp.ID, domain.OperationStatusClosed); err != nil {
		logger.Error("transaction service close deposit operation failed", err, logger.Fields{
			"operationId":  depositOp.ID,
			"operationRef": tx.OperationID,
		})
		return domain.NewTransactionError(domain.TransactionStatusOperationPending, tx.OperationID, "Operation pending error")
	}

	s.publishCompleted(ctx, tx, payerAccount.ID, shopAccount.ID, withdrawOp.ID, depositOp.ID)
	return nil
}

func (s *TransactionService) resolvePayer(ctx context.Context, tx domain.BankTransaction) (domain.Account, *domain.Check, error) {
	switch tx.PaymentMethod {
	case domain.PaymentMethodCard:
		account, err := s.accountRepo.GetByCardID(ctx, tx.CardID)
		if err != nil {
			if errors.Is(err, commons.ErrRecordNotFound) {
				return domain.Account{}, nil, domain.NewTransactionError(domain.TransactionStatusAccountError, tx.OperationID, "Account not found for card")
			}
			return domain.Account{}, nil, err
		}
		return account, nil, nil

	case domain.PaymentMethodCheck:
		if s.codec != nil {
			if _, err := s.codec.Decode(tx.CheckToken); err != nil {
				return domain.Account{}, nil, domain.NewTransactionError(domain.TransactionStatusCheckError, tx.OperationID, "Check token invalid")
			}
		}

		account, err := s.accountRepo.GetByOrganisationName(ctx, s.bankOrganisation)
		if err != nil {
			if errors.Is(err, commons.ErrRecordNotFound) {
				return domain.Account{}, nil, domain.NewTransactionError(domain.TransactionStatusAccountError, tx.OperationID, "Bank operating account not found")
			}
			return domain.Account{}, nil, err
		}

		check, err := s.checkRepo.GetByToken(ctx, tx.CheckToken)
		if err != nil {
			if errors.Is(err, commons.ErrRecordNotFound) {
				return domain.Account{}, nil, domain.NewTransactionError(domain.TransactionStatusCheckError, tx.OperationID, "Check not found")
			}
			return domain.Account{}, nil, err
		}
		return account, &check, nil

	default:
		return domain.Account{}, nil, domain.NewTransactionError(domain.TransactionStatusMeansOfPayment, tx.OperationID, "Unsupported payment method")
	}
}

func (s *TransactionService) newOperation(tx domain.BankTransaction, accountID string, check *domain.Check, opType domain.OperationType) domain.Operation {
	op := domain.Operation{
		ID:            uuid.NewString(),
		OperationRef:  tx.OperationID,
		Label:         tx.Label,
		Amount:        tx.Amount,
		AccountID:     accountID,
		Type:          opType,
		PaymentMethod: tx.PaymentMethod,
		ExecutedAt:    tx.Date,
	}
	if check != nil {
		checkID := check.ID
		op.CheckID = &checkID
	}
	return op
}

// cancelOperation settles a pending operation as CANCELED. A failure here is
// logged but never overrides the status already decided by the caller.
func (s *TransactionService) cancelOperation(ctx context.Context, operationID string) {
	if err := s.operationRepo.UpdateStatus(ctx, operationID, domain.OperationStatusCanceled); err != nil {
		logger.Error("transaction service cancel operation failed", err, logger.Fields{
			"operationId": operationID,
		})
	}
}

func (s *TransactionService) publishCompleted(ctx context.Context, tx domain.BankTransaction, payerAccountID, shopAccountID, withdrawOpID, depositOpID string) {
	event := events.TransactionCompleted{
		OperationRef:        tx.OperationID,
		WithdrawOperationID: withdrawOpID,
		DepositOperationID:  depositOpID,
		PayerAccountID:      payerAccountID,
		ShopAccountID:       shopAccountID,
		Amount:              tx.Amount,
		PaymentMethod:       tx.PaymentMethod,
		OccurredAt:          time.Now().UTC(),
	}

	if err := s.publisher.PublishTransactionCompleted(ctx, event); err != nil {
		logger.Error("transaction service publish transaction completed failed", err, logger.Fields{
			"operationRef": tx.OperationID,
		})
	}
}
