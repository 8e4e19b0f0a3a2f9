package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

// repoTx implements the engine's unit-of-work interface on top of a
// single *sql.Tx.
type repoTx struct {
	tx *sql.Tx
}

// FindLoanForUpdate retrieves a loan and takes a row lock on it, so
// concurrent approve/pay transactions on the same loan are serialized.
func (t *repoTx) FindLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM lms.loans WHERE id = $1 FOR UPDATE`, id)
	return scanLoan(row)
}

// UpdateLoanDecision persists the lifecycle fields set by approve/reject
func (t *repoTx) UpdateLoanDecision(ctx context.Context, loan *models.Loan) error {
	query := `
		UPDATE lms.loans
		SET status = $2, disbursement_date = $3, first_payment_date = $4, approved_by = $5
		WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query,
		loan.ID, loan.Status, loan.DisbursementDate, loan.FirstPaymentDate, loan.ApprovedBy); err != nil {
		return fmt.Errorf("failed to update loan decision: %w", err)
	}
	return nil
}

// UpdateLoanBalance persists the remaining balance and status
func (t *repoTx) UpdateLoanBalance(ctx context.Context, loanID int64, balance decimal.Decimal, status string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE lms.loans SET remaining_balance = $2, status = $3 WHERE id = $1`,
		loanID, balance, status); err != nil {
		return fmt.Errorf("failed to update loan balance: %w", err)
	}
	return nil
}

// CreatePayments bulk-inserts schedule rows using the Postgres COPY protocol
func (t *repoTx) CreatePayments(ctx context.Context, payments []models.Payment) error {
	stmt, err := t.tx.PrepareContext(ctx, pq.CopyInSchema("lms", "payments",
		"loan_id", "payment_number", "due_date", "amount_due",
		"principal_amount", "interest_amount", "amount_paid", "late_fee", "status"))
	if err != nil {
		return fmt.Errorf("failed to prepare payment insert: %w", err)
	}
	for _, p := range payments {
		if _, err := stmt.ExecContext(ctx,
			p.LoanID, p.PaymentNumber, p.DueDate, p.AmountDue,
			p.PrincipalAmount, p.InterestAmount, p.AmountPaid, p.LateFee, p.Status); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to insert payment row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush payment rows: %w", err)
	}
	return stmt.Close()
}

// NextPendingPayment retrieves the earliest pending schedule row (FIFO)
func (t *repoTx) NextPendingPayment(ctx context.Context, loanID int64) (*models.Payment, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM lms.payments
		WHERE loan_id = $1 AND status = 'pending'
		ORDER BY payment_number
		LIMIT 1
		FOR UPDATE`, loanID)
	payment, err := scanPaymentInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending payment: %w", err)
	}
	return payment, nil
}

// MarkPaymentPaid records the settlement of a schedule row. The guard on
// status keeps a row from ever being paid twice.
func (t *repoTx) MarkPaymentPaid(ctx context.Context, payment *models.Payment) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE lms.payments
		SET amount_paid = $2, status = 'paid', payment_method = $3
		WHERE id = $1 AND status = 'pending'`,
		payment.ID, payment.AmountPaid, payment.PaymentMethod)
	if err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %d is no longer pending", payment.ID)
	}
	return nil
}

// SetPaymentLateFee records a late fee on an overdue schedule row
func (t *repoTx) SetPaymentLateFee(ctx context.Context, paymentID int64, fee decimal.Decimal) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE lms.payments SET late_fee = $2 WHERE id = $1 AND status = 'pending'`,
		paymentID, fee); err != nil {
		return fmt.Errorf("failed to set late fee: %w", err)
	}
	return nil
}

// CountPendingPayments counts the loan's unpaid schedule rows
func (t *repoTx) CountPendingPayments(ctx context.Context, loanID int64) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lms.payments WHERE loan_id = $1 AND status = 'pending'`, loanID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending payments: %w", err)
	}
	return count, nil
}

// CreateTransaction appends an immutable audit record
func (t *repoTx) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO lms.transactions (loan_id, type, amount, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := t.tx.QueryRowContext(ctx, query,
		txn.LoanID, txn.Type, txn.Amount, txn.Description, txn.CreatedBy).
		Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}
