package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recorded in the audit trail.
const (
	TransactionPayment      = "payment"
	TransactionDisbursement = "disbursement"
	TransactionAdjustment   = "adjustment"
)

// Transaction is an append-only audit entry. Rows are never mutated or
// deleted after creation.
type Transaction struct {
	ID          int64           `json:"id"`
	LoanID      int64           `json:"loan_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
