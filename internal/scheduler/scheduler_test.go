package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/loanworks/loan-service/internal/models"
	"github.com/loanworks/loan-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeStore struct {
	payments      []models.Payment
	notifications []models.Notification
	lateFees      map[int64]decimal.Decimal
}

func (s *fakeStore) ListPendingPaymentsDueBy(ctx context.Context, by time.Time) ([]models.Payment, error) {
	var due []models.Payment
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusPending && !p.DueDate.After(by) {
			due = append(due, p)
		}
	}
	return due, nil
}

func (s *fakeStore) FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error) {
	return &models.User{ID: 7, Email: "owner@example.com", FullName: "Owner"}, nil
}

func (s *fakeStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return fn(&fakeTx{store: s})
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) SetPaymentLateFee(ctx context.Context, paymentID int64, fee decimal.Decimal) error {
	t.store.lateFees[paymentID] = fee
	return nil
}

func (t *fakeTx) FindLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error) { return nil, nil }
func (t *fakeTx) UpdateLoanDecision(ctx context.Context, loan *models.Loan) error      { return nil }
func (t *fakeTx) UpdateLoanBalance(ctx context.Context, loanID int64, balance decimal.Decimal, status string) error {
	return nil
}
func (t *fakeTx) CreatePayments(ctx context.Context, payments []models.Payment) error { return nil }
func (t *fakeTx) NextPendingPayment(ctx context.Context, loanID int64) (*models.Payment, error) {
	return nil, nil
}
func (t *fakeTx) MarkPaymentPaid(ctx context.Context, payment *models.Payment) error { return nil }
func (t *fakeTx) CountPendingPayments(ctx context.Context, loanID int64) (int, error) {
	return 0, nil
}
func (t *fakeTx) CreateTransaction(ctx context.Context, txn *models.Transaction) error { return nil }

type fakeMailer struct {
	sent []bool // isOverdue flag per email
}

func (m *fakeMailer) SendPaymentReminder(to, fullName string, dueDate time.Time, amount, lateFee string, isOverdue bool) error {
	m.sent = append(m.sent, isOverdue)
	return nil
}

func TestReminderRun(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	due := decimal.RequireFromString("888.49")

	store := &fakeStore{
		lateFees: map[int64]decimal.Decimal{},
		payments: []models.Payment{
			{ID: 1, LoanID: 10, PaymentNumber: 1, DueDate: now.Add(-48 * time.Hour),
				AmountDue: due, LateFee: decimal.Zero, Status: models.PaymentStatusPending},
			{ID: 2, LoanID: 10, PaymentNumber: 2, DueDate: now.Add(48 * time.Hour),
				AmountDue: due, LateFee: decimal.Zero, Status: models.PaymentStatusPending},
			{ID: 3, LoanID: 10, PaymentNumber: 3, DueDate: now.Add(30 * 24 * time.Hour),
				AmountDue: due, LateFee: decimal.Zero, Status: models.PaymentStatusPending},
		},
	}
	mailer := &fakeMailer{}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	job := NewReminder(store, mailer, logger)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Only the overdue row gets a fee, and only once.
	wantFee := due.Mul(decimal.RequireFromString("0.05")).RoundBank(2)
	if fee, ok := store.lateFees[1]; !ok || !fee.Equal(wantFee) {
		t.Errorf("late fee on payment 1 = %v, want %s", fee, wantFee)
	}
	if _, ok := store.lateFees[2]; ok {
		t.Error("upcoming payment 2 accrued a late fee")
	}

	// The row a month out is beyond the reminder window.
	if len(mailer.sent) != 2 {
		t.Fatalf("sent %d reminder emails, want 2", len(mailer.sent))
	}
	if !mailer.sent[0] || mailer.sent[1] {
		t.Errorf("overdue flags = %v, want [true false]", mailer.sent)
	}
	if len(store.notifications) != 2 {
		t.Errorf("recorded %d notifications, want 2", len(store.notifications))
	}

	// A second sweep must not stack another fee.
	store.payments[0].LateFee = store.lateFees[1]
	mailer.sent = nil
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !store.lateFees[1].Equal(wantFee) {
		t.Errorf("late fee changed on second sweep: %s", store.lateFees[1])
	}
}
