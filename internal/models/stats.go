package models

import "github.com/shopspring/decimal"

// LoanStats represents portfolio statistics for the staff dashboard
type LoanStats struct {
	TotalLoans     int             `json:"total_loans"`
	ActiveLoans    int             `json:"active_loans"`
	PendingLoans   int             `json:"pending_loans"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	RecentLoans    []Loan          `json:"recent_loans"`
}
