package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schedule row statuses. A row moves pending -> paid exactly once.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Payment is one row of a loan's repayment schedule. Payment numbers form
// a contiguous sequence 1..term per loan.
type Payment struct {
	ID              int64           `json:"id"`
	LoanID          int64           `json:"loan_id"`
	PaymentNumber   int             `json:"payment_number"`
	DueDate         time.Time       `json:"due_date"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	LateFee         decimal.Decimal `json:"late_fee"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// TotalDue is the amount due including any accrued late fee.
func (p *Payment) TotalDue() decimal.Decimal {
	return p.AmountDue.Add(p.LateFee)
}
