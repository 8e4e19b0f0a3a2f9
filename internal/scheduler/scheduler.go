// Package scheduler runs the daily payment-reminder job: upcoming
// installments get a reminder email, overdue ones accrue a one-time late
// fee and an overdue notice. Reminder failures never affect financial
// state beyond the recorded fee.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/loanworks/loan-service/internal/models"
	"github.com/loanworks/loan-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Installments due within this window get a reminder.
const reminderWindow = 3 * 24 * time.Hour

// One-time late fee applied to an overdue installment.
var lateFeeRate = decimal.RequireFromString("0.05")

// Store is the persistence surface the reminder job needs.
type Store interface {
	ListPendingPaymentsDueBy(ctx context.Context, by time.Time) ([]models.Payment, error)
	FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	WithinTx(ctx context.Context, fn func(tx service.Tx) error) error
}

// Mailer sends reminder emails.
type Mailer interface {
	SendPaymentReminder(to, fullName string, dueDate time.Time, amount, lateFee string, isOverdue bool) error
}

// Reminder is the scheduled payment-reminder job.
type Reminder struct {
	store Store
	mail  Mailer
	log   *logrus.Logger
	cron  *cron.Cron
	now   func() time.Time
}

// NewReminder creates the reminder job.
func NewReminder(store Store, mail Mailer, log *logrus.Logger) *Reminder {
	return &Reminder{
		store: store,
		mail:  mail,
		log:   log,
		cron:  cron.New(),
		now:   time.Now,
	}
}

// Start schedules the daily run. Stop with Stop.
func (r *Reminder) Start() error {
	if _, err := r.cron.AddFunc("@daily", func() {
		if err := r.Run(context.Background()); err != nil {
			r.log.Errorf("Payment reminder run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	r.cron.Start()
	r.log.Info("Payment reminder job scheduled")
	return nil
}

// Stop halts the cron scheduler.
func (r *Reminder) Stop() {
	r.cron.Stop()
}

// Run performs one reminder sweep.
func (r *Reminder) Run(ctx context.Context) error {
	now := r.now().UTC()
	payments, err := r.store.ListPendingPaymentsDueBy(ctx, now.Add(reminderWindow))
	if err != nil {
		return err
	}

	for i := range payments {
		p := &payments[i]
		overdue := p.DueDate.Before(now)
		if overdue && p.LateFee.IsZero() {
			fee := p.AmountDue.Mul(lateFeeRate).RoundBank(2)
			err := r.store.WithinTx(ctx, func(tx service.Tx) error {
				return tx.SetPaymentLateFee(ctx, p.ID, fee)
			})
			if err != nil {
				r.log.Errorf("Late fee for payment %d not applied: %v", p.ID, err)
				continue
			}
			p.LateFee = fee
		}

		owner, err := r.store.FindLoanOwner(ctx, p.LoanID)
		if err != nil || owner == nil {
			r.log.Errorf("Owner lookup for loan %d failed: %v", p.LoanID, err)
			continue
		}

		r.notify(ctx, owner.ID, p, overdue)
		if err := r.mail.SendPaymentReminder(owner.Email, owner.FullName, p.DueDate,
			p.AmountDue.StringFixed(2), p.LateFee.StringFixed(2), overdue); err != nil {
			r.log.Errorf("Reminder email for payment %d not sent: %v", p.ID, err)
		}
	}

	r.log.Infof("Payment reminder sweep finished: %d installment(s) checked", len(payments))
	return nil
}

func (r *Reminder) notify(ctx context.Context, userID int64, p *models.Payment, overdue bool) {
	title := "Upcoming Payment"
	message := fmt.Sprintf("Installment %d of %s is due on %s.",
		p.PaymentNumber, p.AmountDue.StringFixed(2), p.DueDate.Format("2006-01-02"))
	if overdue {
		title = "Overdue Payment"
		message = fmt.Sprintf("Installment %d of %s was due on %s and is overdue.",
			p.PaymentNumber, p.AmountDue.StringFixed(2), p.DueDate.Format("2006-01-02"))
	}
	n := &models.Notification{
		UserID:        userID,
		Title:         title,
		Message:       message,
		Kind:          models.NotificationPaymentReminder,
		RelatedLoanID: &p.LoanID,
	}
	if err := r.store.CreateNotification(ctx, n); err != nil {
		r.log.Errorf("Reminder notification for user %d not recorded: %v", userID, err)
	}
}
