package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loanworks/loan-service/internal/models"
)

const paymentColumns = `id, loan_id, payment_number, due_date, amount_due,
	principal_amount, interest_amount, amount_paid, late_fee, status,
	COALESCE(payment_method, ''), COALESCE(notes, '')`

// ListPaymentsByLoan retrieves the loan's schedule ordered by payment number
func (r *Repository) ListPaymentsByLoan(ctx context.Context, loanID int64) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM lms.payments
		WHERE loan_id = $1
		ORDER BY payment_number`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return collectPayments(rows)
}

// ListPendingPaymentsDueBy retrieves pending schedule rows due on or
// before the given time, across all loans. Used by the reminder job.
func (r *Repository) ListPendingPaymentsDueBy(ctx context.Context, by time.Time) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM lms.payments
		WHERE status = 'pending' AND due_date <= $1
		ORDER BY loan_id, payment_number`, by)
	if err != nil {
		return nil, fmt.Errorf("failed to list due payments: %w", err)
	}
	return collectPayments(rows)
}

func scanPaymentInto(s rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	err := s.Scan(&p.ID, &p.LoanID, &p.PaymentNumber, &p.DueDate, &p.AmountDue,
		&p.PrincipalAmount, &p.InterestAmount, &p.AmountPaid, &p.LateFee, &p.Status,
		&p.PaymentMethod, &p.Notes)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectPayments(rows *sql.Rows) ([]models.Payment, error) {
	defer rows.Close()
	var payments []models.Payment
	for rows.Next() {
		p, err := scanPaymentInto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}

// ListTransactionsByLoan retrieves the loan's audit trail, oldest first
func (r *Repository) ListTransactionsByLoan(ctx context.Context, loanID int64) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, loan_id, type, amount, description, created_by, created_at
		FROM lms.transactions
		WHERE loan_id = $1
		ORDER BY created_at, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.LoanID, &txn.Type, &txn.Amount,
			&txn.Description, &txn.CreatedBy, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txns, nil
}
