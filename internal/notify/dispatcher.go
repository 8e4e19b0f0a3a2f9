// Package notify delivers lifecycle and ledger events as in-app
// notifications and emails. Delivery is fire-and-forget: failures are
// logged and swallowed, never surfaced to the engine.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/loanworks/loan-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Store is the subset of persistence the dispatcher needs.
type Store interface {
	FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Mailer sends the outbound emails.
type Mailer interface {
	SendLoanDecision(to, fullName string, loan *models.Loan, approved bool) error
	SendPaymentReminder(to, fullName string, dueDate time.Time, amount, lateFee string, isOverdue bool) error
	SendPaymentReceipt(to, fullName string, loan *models.Loan, payment *models.Payment) error
}

// Dispatcher writes notification rows and emails the loan owner.
type Dispatcher struct {
	store  Store
	mailer Mailer
	log    *logrus.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store Store, mailer Mailer, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{store: store, mailer: mailer, log: log}
}

// LoanApproved notifies the borrower of an approval.
func (d *Dispatcher) LoanApproved(ctx context.Context, loan *models.Loan) {
	owner := d.loanOwner(ctx, loan.ID)
	if owner == nil {
		return
	}
	d.record(ctx, owner.ID, loan.ID, "Loan Approved",
		fmt.Sprintf("Your loan application %s has been approved!", loan.LoanNumber),
		models.NotificationLoanStatus)
	if err := d.mailer.SendLoanDecision(owner.Email, owner.FullName, loan, true); err != nil {
		d.log.Errorf("Approval email for loan %s not sent: %v", loan.LoanNumber, err)
	}
}

// LoanRejected notifies the borrower of a rejection.
func (d *Dispatcher) LoanRejected(ctx context.Context, loan *models.Loan) {
	owner := d.loanOwner(ctx, loan.ID)
	if owner == nil {
		return
	}
	d.record(ctx, owner.ID, loan.ID, "Loan Rejected",
		fmt.Sprintf("Your loan application %s has been rejected. Please contact us for more information.", loan.LoanNumber),
		models.NotificationLoanStatus)
	if err := d.mailer.SendLoanDecision(owner.Email, owner.FullName, loan, false); err != nil {
		d.log.Errorf("Rejection email for loan %s not sent: %v", loan.LoanNumber, err)
	}
}

// PaymentApplied confirms an applied payment to the borrower.
func (d *Dispatcher) PaymentApplied(ctx context.Context, loan *models.Loan, payment *models.Payment) {
	owner := d.loanOwner(ctx, loan.ID)
	if owner == nil {
		return
	}
	d.record(ctx, owner.ID, loan.ID, "Payment Received",
		fmt.Sprintf("Payment of %s applied to installment %d of loan %s.",
			payment.AmountPaid.StringFixed(2), payment.PaymentNumber, loan.LoanNumber),
		models.NotificationPaymentReceipt)
	if err := d.mailer.SendPaymentReceipt(owner.Email, owner.FullName, loan, payment); err != nil {
		d.log.Errorf("Payment receipt for loan %s not sent: %v", loan.LoanNumber, err)
	}
}

func (d *Dispatcher) loanOwner(ctx context.Context, loanID int64) *models.User {
	owner, err := d.store.FindLoanOwner(ctx, loanID)
	if err != nil || owner == nil {
		d.log.Errorf("Owner lookup for loan %d failed: %v", loanID, err)
		return nil
	}
	return owner
}

func (d *Dispatcher) record(ctx context.Context, userID, loanID int64, title, message, kind string) {
	n := &models.Notification{
		UserID:        userID,
		Title:         title,
		Message:       message,
		Kind:          kind,
		RelatedLoanID: &loanID,
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		d.log.Errorf("Notification %q for user %d not recorded: %v", title, userID, err)
	}
}
