package service

import (
	"context"
	"sync"
	"time"

	"github.com/loanworks/loan-service/internal/config"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   string
}

// Staff reports whether the actor holds an admin or manager role.
func (a Actor) Staff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleManager
}

// Dispatcher receives lifecycle and ledger events. Implementations are
// fire-and-forget: they must never return an error to the engine.
type Dispatcher interface {
	LoanApproved(ctx context.Context, loan *models.Loan)
	LoanRejected(ctx context.Context, loan *models.Loan)
	PaymentApplied(ctx context.Context, loan *models.Loan, payment *models.Payment)
}

// Service handles business logic
type Service struct {
	store      Store
	log        *logrus.Logger
	config     *config.Config
	dispatcher Dispatcher
	locks      loanLocks
	now        func() time.Time
}

// NewService initializes a new service
func NewService(store Store, dispatcher Dispatcher, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:      store,
		log:        log,
		config:     cfg,
		dispatcher: dispatcher,
		locks:      loanLocks{locks: make(map[int64]*sync.Mutex)},
		now:        time.Now,
	}
}

// loanLocks hands out one mutex per loan id. Loans are independent units
// of concurrency; there is no cross-loan locking.
type loanLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *loanLocks) forLoan(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// authorizeLoanAccess verifies that the actor owns the loan or is staff.
// Non-privileged actors may only touch loans of their own customer profile.
func (s *Service) authorizeLoanAccess(ctx context.Context, actor Actor, loan *models.Loan) error {
	if actor.Staff() {
		return nil
	}
	customer, err := s.store.FindCustomerByID(ctx, loan.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil || customer.UserID != actor.UserID {
		return lmserr.AccessDenied("loan does not belong to the acting user")
	}
	return nil
}

// loadLoan fetches a loan outside any transaction, mapping absence to a
// typed not-found error.
func (s *Service) loadLoan(ctx context.Context, loanID int64) (*models.Loan, error) {
	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, lmserr.NotFound("loan", loanID)
	}
	return loan, nil
}
