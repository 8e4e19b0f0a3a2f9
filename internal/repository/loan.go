package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loanworks/loan-service/internal/models"
)

const loanColumns = `id, loan_number, customer_id, loan_type, principal_amount, interest_rate,
	term_months, monthly_payment, total_amount, remaining_balance, status,
	disbursement_date, first_payment_date, approved_by, created_at`

// CreateLoan creates a new pending loan
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO lms.loans (loan_number, customer_id, loan_type, principal_amount, interest_rate,
			term_months, monthly_payment, total_amount, remaining_balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		loan.LoanNumber, loan.CustomerID, loan.LoanType, loan.PrincipalAmount, loan.InterestRate,
		loan.TermMonths, loan.MonthlyPayment, loan.TotalAmount, loan.RemainingBalance, loan.Status).
		Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan by id without locking
func (r *Repository) FindLoanByID(ctx context.Context, id int64) (*models.Loan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM lms.loans WHERE id = $1`, id)
	return scanLoan(row)
}

// ListLoansByCustomer retrieves all loans belonging to a customer
func (r *Repository) ListLoansByCustomer(ctx context.Context, customerID int64) ([]models.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM lms.loans WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return collectLoans(rows)
}

// ListLoans retrieves every loan, newest first
func (r *Repository) ListLoans(ctx context.Context) ([]models.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM lms.loans ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return collectLoans(rows)
}

// FindLoanOwner retrieves the user who owns the loan's customer profile
func (r *Repository) FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.full_name, u.phone, u.role, u.is_active, u.created_at
		FROM lms.users u
		JOIN lms.customers c ON c.user_id = u.id
		JOIN lms.loans l ON l.customer_id = c.id
		WHERE l.id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, loanID))
}

// LoanStats aggregates portfolio statistics for the staff dashboard
func (r *Repository) LoanStats(ctx context.Context) (*models.LoanStats, error) {
	stats := &models.LoanStats{}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(principal_amount), 0)
		FROM lms.loans`
	err := r.db.QueryRowContext(ctx, query).
		Scan(&stats.TotalLoans, &stats.ActiveLoans, &stats.PendingLoans, &stats.TotalPrincipal)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate loan stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM lms.loans ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent loans: %w", err)
	}
	stats.RecentLoans, err = collectLoans(rows)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoanInto(s rowScanner) (*models.Loan, error) {
	loan := &models.Loan{}
	err := s.Scan(&loan.ID, &loan.LoanNumber, &loan.CustomerID, &loan.LoanType,
		&loan.PrincipalAmount, &loan.InterestRate, &loan.TermMonths, &loan.MonthlyPayment,
		&loan.TotalAmount, &loan.RemainingBalance, &loan.Status,
		&loan.DisbursementDate, &loan.FirstPaymentDate, &loan.ApprovedBy, &loan.CreatedAt)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func scanLoan(row *sql.Row) (*models.Loan, error) {
	loan, err := scanLoanInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

func collectLoans(rows *sql.Rows) ([]models.Loan, error) {
	defer rows.Close()
	var loans []models.Loan
	for rows.Next() {
		loan, err := scanLoanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read loans: %w", err)
	}
	return loans, nil
}
