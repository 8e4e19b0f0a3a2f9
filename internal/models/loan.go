package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan lifecycle statuses. A rejected loan is terminal; a closed loan is
// set by the ledger when the final installment is paid.
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
	LoanStatusClosed   = "closed"
)

// Loan represents an installment loan. Principal, rate, and term are
// immutable after creation; remaining balance stays within [0, total].
type Loan struct {
	ID               int64           `json:"id"`
	LoanNumber       string          `json:"loan_number"`
	CustomerID       int64           `json:"customer_id"`
	LoanType         string          `json:"loan_type"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	TermMonths       int             `json:"term_months"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           string          `json:"status"`
	DisbursementDate *time.Time      `json:"disbursement_date,omitempty"`
	FirstPaymentDate *time.Time      `json:"first_payment_date,omitempty"`
	ApprovedBy       *int64          `json:"approved_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Active reports whether the loan is disbursed and still being repaid.
func (l *Loan) Active() bool {
	return l.Status == LoanStatusApproved
}

// Decided reports whether the loan has left the pending state.
func (l *Loan) Decided() bool {
	return l.Status != LoanStatusPending
}
