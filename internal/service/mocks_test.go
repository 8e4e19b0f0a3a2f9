package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/loanworks/loan-service/internal/config"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory Store with snapshot-based rollback, so the
// engine's unit-of-work semantics hold in tests too.
type memStore struct {
	mu            sync.Mutex
	users         map[int64]*models.User
	customers     map[int64]*models.Customer
	loans         map[int64]*models.Loan
	payments      map[int64]*models.Payment
	transactions  []models.Transaction
	notifications []models.Notification
	documents     map[int64]*models.Document
	settings      map[string]models.Setting
	nextID        int64

	// failOn makes the named Tx method fail, for rollback tests.
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*models.User),
		customers: make(map[int64]*models.Customer),
		loans:     make(map[int64]*models.Loan),
		payments:  make(map[int64]*models.Payment),
		documents: make(map[int64]*models.Document),
		settings:  make(map[string]models.Setting),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	loans        map[int64]*models.Loan
	payments     map[int64]*models.Payment
	transactions []models.Transaction
	nextID       int64
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		loans:        make(map[int64]*models.Loan, len(m.loans)),
		payments:     make(map[int64]*models.Payment, len(m.payments)),
		transactions: append([]models.Transaction(nil), m.transactions...),
		nextID:       m.nextID,
	}
	for id, l := range m.loans {
		cp := *l
		s.loans[id] = &cp
	}
	for id, p := range m.payments {
		cp := *p
		s.payments[id] = &cp
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.loans = s.loans
	m.payments = s.payments
	m.transactions = s.transactions
	m.nextID = s.nextID
}

// WithinTx serializes all units of work and rolls the financial state
// back when fn fails.
func (m *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(&memTx{store: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	customer.ID = m.id()
	customer.CreatedAt = time.Now()
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *memStore) FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) FindCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan.ID = m.id()
	loan.CreatedAt = time.Now()
	cp := *loan
	m.loans[loan.ID] = &cp
	return nil
}

func (m *memStore) FindLoanByID(ctx context.Context, id int64) (*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loans[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListLoansByCustomer(ctx context.Context, customerID int64) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var loans []models.Loan
	for _, l := range m.loans {
		if l.CustomerID == customerID {
			loans = append(loans, *l)
		}
	}
	return loans, nil
}

func (m *memStore) ListLoans(ctx context.Context) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var loans []models.Loan
	for _, l := range m.loans {
		loans = append(loans, *l)
	}
	return loans, nil
}

func (m *memStore) ListPaymentsByLoan(ctx context.Context, loanID int64) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentsForLoan(loanID), nil
}

func (m *memStore) paymentsForLoan(loanID int64) []models.Payment {
	var payments []models.Payment
	for _, p := range m.payments {
		if p.LoanID == loanID {
			payments = append(payments, *p)
		}
	}
	for i := range payments {
		for j := i + 1; j < len(payments); j++ {
			if payments[j].PaymentNumber < payments[i].PaymentNumber {
				payments[i], payments[j] = payments[j], payments[i]
			}
		}
	}
	return payments
}

func (m *memStore) ListTransactionsByLoan(ctx context.Context, loanID int64) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txns []models.Transaction
	for _, t := range m.transactions {
		if t.LoanID == loanID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *memStore) ListPendingPaymentsDueBy(ctx context.Context, by time.Time) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var payments []models.Payment
	for _, p := range m.payments {
		if p.Status == models.PaymentStatusPending && !p.DueDate.After(by) {
			payments = append(payments, *p)
		}
	}
	return payments, nil
}

func (m *memStore) FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[loanID]
	if !ok {
		return nil, nil
	}
	c, ok := m.customers[l.CustomerID]
	if !ok {
		return nil, nil
	}
	if u, ok := m.users[c.UserID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) LoanStats(ctx context.Context) (*models.LoanStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.LoanStats{TotalPrincipal: decimal.Zero}
	for _, l := range m.loans {
		stats.TotalLoans++
		stats.TotalPrincipal = stats.TotalPrincipal.Add(l.PrincipalAmount)
		switch l.Status {
		case models.LoanStatusApproved:
			stats.ActiveLoans++
		case models.LoanStatusPending:
			stats.PendingLoans++
		}
	}
	return stats, nil
}

func (m *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memStore) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *memStore) FindNotificationByID(ctx context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].IsRead = true
		}
	}
	return nil
}

func (m *memStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = m.id()
	doc.UploadedAt = time.Now()
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *memStore) FindDocumentByID(ctx context.Context, id int64) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.documents[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListSettings(ctx context.Context) ([]models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var settings []models.Setting
	for _, s := range m.settings {
		settings = append(settings, s)
	}
	return settings, nil
}

func (m *memStore) UpsertSetting(ctx context.Context, s *models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	m.settings[s.Key] = *s
	return nil
}

// memTx mutates the store in place; WithinTx restores the snapshot on
// error. The store mutex is already held.
type memTx struct {
	store *memStore
}

func (t *memTx) fail(method string) error {
	if t.store.failOn == method {
		return fmt.Errorf("injected %s failure", method)
	}
	return nil
}

func (t *memTx) FindLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error) {
	if err := t.fail("FindLoanForUpdate"); err != nil {
		return nil, err
	}
	if l, ok := t.store.loans[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (t *memTx) UpdateLoanDecision(ctx context.Context, loan *models.Loan) error {
	if err := t.fail("UpdateLoanDecision"); err != nil {
		return err
	}
	stored, ok := t.store.loans[loan.ID]
	if !ok {
		return fmt.Errorf("loan %d missing", loan.ID)
	}
	stored.Status = loan.Status
	stored.DisbursementDate = loan.DisbursementDate
	stored.FirstPaymentDate = loan.FirstPaymentDate
	stored.ApprovedBy = loan.ApprovedBy
	return nil
}

func (t *memTx) UpdateLoanBalance(ctx context.Context, loanID int64, balance decimal.Decimal, status string) error {
	if err := t.fail("UpdateLoanBalance"); err != nil {
		return err
	}
	stored, ok := t.store.loans[loanID]
	if !ok {
		return fmt.Errorf("loan %d missing", loanID)
	}
	stored.RemainingBalance = balance
	stored.Status = status
	return nil
}

func (t *memTx) CreatePayments(ctx context.Context, payments []models.Payment) error {
	if err := t.fail("CreatePayments"); err != nil {
		return err
	}
	for i := range payments {
		payments[i].ID = t.store.id()
		cp := payments[i]
		t.store.payments[cp.ID] = &cp
	}
	return nil
}

func (t *memTx) NextPendingPayment(ctx context.Context, loanID int64) (*models.Payment, error) {
	if err := t.fail("NextPendingPayment"); err != nil {
		return nil, err
	}
	var next *models.Payment
	for _, p := range t.store.payments {
		if p.LoanID != loanID || p.Status != models.PaymentStatusPending {
			continue
		}
		if next == nil || p.PaymentNumber < next.PaymentNumber {
			next = p
		}
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

func (t *memTx) MarkPaymentPaid(ctx context.Context, payment *models.Payment) error {
	if err := t.fail("MarkPaymentPaid"); err != nil {
		return err
	}
	stored, ok := t.store.payments[payment.ID]
	if !ok {
		return fmt.Errorf("payment %d missing", payment.ID)
	}
	if stored.Status != models.PaymentStatusPending {
		return fmt.Errorf("payment %d is no longer pending", payment.ID)
	}
	stored.Status = models.PaymentStatusPaid
	stored.AmountPaid = payment.AmountPaid
	stored.PaymentMethod = payment.PaymentMethod
	return nil
}

func (t *memTx) SetPaymentLateFee(ctx context.Context, paymentID int64, fee decimal.Decimal) error {
	if err := t.fail("SetPaymentLateFee"); err != nil {
		return err
	}
	if stored, ok := t.store.payments[paymentID]; ok {
		stored.LateFee = fee
	}
	return nil
}

func (t *memTx) CountPendingPayments(ctx context.Context, loanID int64) (int, error) {
	if err := t.fail("CountPendingPayments"); err != nil {
		return 0, err
	}
	count := 0
	for _, p := range t.store.payments {
		if p.LoanID == loanID && p.Status == models.PaymentStatusPending {
			count++
		}
	}
	return count, nil
}

func (t *memTx) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := t.fail("CreateTransaction"); err != nil {
		return err
	}
	txn.ID = t.store.id()
	txn.CreatedAt = time.Now()
	t.store.transactions = append(t.store.transactions, *txn)
	return nil
}

// memDispatcher records emitted events.
type memDispatcher struct {
	mu     sync.Mutex
	events []string
}

func (d *memDispatcher) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *memDispatcher) LoanApproved(ctx context.Context, loan *models.Loan) {
	d.record("approved")
}

func (d *memDispatcher) LoanRejected(ctx context.Context, loan *models.Loan) {
	d.record("rejected")
}

func (d *memDispatcher) PaymentApplied(ctx context.Context, loan *models.Loan, payment *models.Payment) {
	d.record("payment")
}

func (d *memDispatcher) count(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e == event {
			n++
		}
	}
	return n
}

const (
	borrowerUserID = int64(1)
	strangerUserID = int64(2)
	adminUserID    = int64(3)
)

var (
	borrower = Actor{UserID: borrowerUserID, Role: models.RoleCustomer}
	stranger = Actor{UserID: strangerUserID, Role: models.RoleCustomer}
	admin    = Actor{UserID: adminUserID, Role: models.RoleAdmin}
)

// newTestService builds a service over an in-memory store seeded with a
// borrower, an unrelated customer, and an admin.
func newTestService(t *testing.T) (*Service, *memStore, *memDispatcher) {
	t.Helper()
	store := newMemStore()
	dispatcher := &memDispatcher{}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewService(store, dispatcher, logger, &config.Config{JWTSecret: "test-secret"})

	ctx := context.Background()
	seeds := []struct {
		username string
		role     string
	}{
		{"borrower", models.RoleCustomer},
		{"stranger", models.RoleCustomer},
		{"admin", models.RoleAdmin},
	}
	users := make([]*models.User, 0, len(seeds))
	for _, seed := range seeds {
		u := &models.User{
			Username: seed.username,
			Email:    seed.username + "@example.com",
			FullName: seed.username,
			Role:     seed.role,
			IsActive: true,
		}
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		users = append(users, u)
	}
	for _, u := range users {
		if u.Role != models.RoleCustomer {
			continue
		}
		c := &models.Customer{UserID: u.ID, CustomerNumber: fmt.Sprintf("CUST%05d", u.ID)}
		if err := store.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("seed customer: %v", err)
		}
	}
	return svc, store, dispatcher
}
