package service

import (
	"context"

	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
)

// LoanDetail bundles a loan with its schedule rows.
type LoanDetail struct {
	Loan     *models.Loan     `json:"loan"`
	Payments []models.Payment `json:"payments"`
}

// ListLoans returns the actor's own loans, or every loan for staff.
// Reads are lock-free snapshots.
func (s *Service) ListLoans(ctx context.Context, actor Actor) ([]models.Loan, error) {
	if actor.Staff() {
		return s.store.ListLoans(ctx)
	}
	customer, err := s.store.FindCustomerByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, lmserr.NotFound("customer profile for user", actor.UserID)
	}
	return s.store.ListLoansByCustomer(ctx, customer.ID)
}

// GetLoanDetail returns the loan and its schedule, enforcing ownership.
func (s *Service) GetLoanDetail(ctx context.Context, actor Actor, loanID int64) (*LoanDetail, error) {
	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeLoanAccess(ctx, actor, loan); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &LoanDetail{Loan: loan, Payments: payments}, nil
}

// ListTransactions returns the loan's audit trail, enforcing ownership.
func (s *Service) ListTransactions(ctx context.Context, actor Actor, loanID int64) ([]models.Transaction, error) {
	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeLoanAccess(ctx, actor, loan); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByLoan(ctx, loanID)
}

// LoanOwnerName returns the full name of the loan's borrower.
func (s *Service) LoanOwnerName(ctx context.Context, loanID int64) (string, error) {
	owner, err := s.store.FindLoanOwner(ctx, loanID)
	if err != nil {
		return "", err
	}
	if owner == nil {
		return "", lmserr.NotFound("owner of loan", loanID)
	}
	return owner.FullName, nil
}

// Stats returns portfolio statistics for the staff dashboard.
func (s *Service) Stats(ctx context.Context, actor Actor) (*models.LoanStats, error) {
	if !actor.Staff() {
		return nil, lmserr.AccessDenied("dashboard statistics require an admin or manager role")
	}
	return s.store.LoanStats(ctx)
}

// ListNotifications returns the actor's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, actor Actor) ([]models.Notification, error) {
	return s.store.ListNotificationsByUser(ctx, actor.UserID)
}

// MarkNotificationRead marks one of the actor's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID int64) error {
	n, err := s.store.FindNotificationByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return lmserr.NotFound("notification", notificationID)
	}
	if n.UserID != actor.UserID {
		return lmserr.AccessDenied("notification does not belong to the acting user")
	}
	return s.store.MarkNotificationRead(ctx, notificationID)
}

// ListSettings returns all system settings. Staff only.
func (s *Service) ListSettings(ctx context.Context, actor Actor) ([]models.Setting, error) {
	if !actor.Staff() {
		return nil, lmserr.AccessDenied("settings require an admin or manager role")
	}
	return s.store.ListSettings(ctx)
}

// UpdateSetting creates or updates a system setting. Staff only.
func (s *Service) UpdateSetting(ctx context.Context, actor Actor, key, value, description string) error {
	if !actor.Staff() {
		return lmserr.AccessDenied("settings require an admin or manager role")
	}
	if key == "" || value == "" {
		return lmserr.Validationf("key and value are required")
	}
	return s.store.UpsertSetting(ctx, &models.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedBy:   actor.UserID,
	})
}
