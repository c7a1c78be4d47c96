package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/api-sage/pos-payment-processor/src/internal/commons"
	"github.com/api-sage/pos-payment-processor/src/internal/domain"
	"github.com/shopspring/decimal"
)

// Store is an in-memory ledger store backing the account, check and operation
// repositories. A single mutex makes every call atomic, which gives
// CreatePending and the balance updates the same guarantees as the
// conditional SQL statements in the postgres adapter.
type Store struct {
	mu         sync.Mutex
	accounts   map[string]domain.Account
	checks     map[string]domain.Check
	operations map[string]domain.Operation
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		checks:     make(map[string]domain.Check),
		operations: make(map[string]domain.Operation),
	}
}

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

func (s *Store) Checks() *CheckRepository {
	return &CheckRepository{store: s}
}

func (s *Store) Operations() *OperationRepository {
	return &OperationRepository{store: s}
}

type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.ClientID == account.ClientID {
			return domain.Account{}, fmt.Errorf("client %q already has an account", account.ClientID)
		}
		if account.Card != nil && existing.Card != nil && existing.Card.ID == account.Card.ID {
			return domain.Account{}, fmt.Errorf("card %q already belongs to an account", account.Card.ID)
		}
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = account
	return account, nil
}

func (r *AccountRepository) GetByCardID(_ context.Context, cardID string) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Card != nil && account.Card.ID == cardID {
			return account, nil
		}
	}
	return domain.Account{}, commons.ErrRecordNotFound
}

func (r *AccountRepository) GetByClientID(_ context.Context, clientID string) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.ClientID == clientID {
			return account, nil
		}
	}
	return domain.Account{}, commons.ErrRecordNotFound
}

func (r *AccountRepository) GetByOrganisationName(_ context.Context, name string) (domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.ClientKind == domain.ClientKindOrganisation && account.ClientName == name {
			return account, nil
		}
	}
	return domain.Account{}, commons.ErrRecordNotFound
}

func (r *AccountRepository) Debit(_ context.Context, accountID string, amount decimal.Decimal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return commons.ErrRecordNotFound
	}
	if account.Balance.LessThan(amount) {
		return commons.ErrInsufficientBalance
	}

	account.Balance = account.Balance.Sub(amount)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

func (r *AccountRepository) Credit(_ context.Context, accountID string, amount decimal.Decimal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return commons.ErrRecordNotFound
	}

	account.Balance = account.Balance.Add(amount)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = account
	return nil
}

type CheckRepository struct {
	store *Store
}

func (r *CheckRepository) Create(_ context.Context, check domain.Check) (domain.Check, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.checks {
		if existing.Token == check.Token {
			return domain.Check{}, fmt.Errorf("check token already exists")
		}
	}

	now := time.Now().UTC()
	if check.CreatedAt.IsZero() {
		check.CreatedAt = now
	}
	check.UpdatedAt = now
	s.checks[check.ID] = check
	return check, nil
}

func (r *CheckRepository) GetByToken(_ context.Context, token string) (domain.Check, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, check := range s.checks {
		if check.Token == token {
			return check, nil
		}
	}
	return domain.Check{}, commons.ErrRecordNotFound
}

func (r *CheckRepository) HasAny(_ context.Context) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.checks) > 0, nil
}

func (r *CheckRepository) Debit(_ context.Context, checkID string, amount decimal.Decimal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	check, ok := s.checks[checkID]
	if !ok {
		return commons.ErrRecordNotFound
	}
	if check.RemainingBalance.LessThan(amount) {
		return commons.ErrInsufficientBalance
	}

	check.RemainingBalance = check.RemainingBalance.Sub(amount)
	check.UpdatedAt = time.Now().UTC()
	s.checks[checkID] = check
	return nil
}

type OperationRepository struct {
	store *Store
}

func (r *OperationRepository) CreatePending(_ context.Context, op domain.Operation) (domain.Operation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.operations {
		if existing.AccountID == op.AccountID && existing.Status == domain.OperationStatusPending {
			return domain.Operation{}, commons.ErrOperationPending
		}
	}

	now := time.Now().UTC()
	op.Status = domain.OperationStatusPending
	op.CreatedAt = now
	op.UpdatedAt = now
	s.operations[op.ID] = op
	return op, nil
}

func (r *OperationRepository) HasPending(_ context.Context, accountID string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range s.operations {
		if op.AccountID == accountID && op.Status == domain.OperationStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *OperationRepository) UpdateStatus(_ context.Context, operationID string, status domain.OperationStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[operationID]
	if !ok {
		return commons.ErrRecordNotFound
	}

	op.Status = status
	op.UpdatedAt = time.Now().UTC()
	s.operations[operationID] = op
	return nil
}

func (r *OperationRepository) ListByAccountID(_ context.Context, accountID string) ([]domain.Operation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var operations []domain.Operation
	for _, op := range s.operations {
		if op.AccountID == accountID {
			operations = append(operations, op)
		}
	}

	sort.Slice(operations, func(i, j int) bool {
		return operations[i].CreatedAt.After(operations[j].CreatedAt)
	})
	return operations, nil
}
