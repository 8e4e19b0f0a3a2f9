package models

import "time"

// Customer is the borrower profile attached to a user account.
type Customer struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	CustomerNumber   string    `json:"customer_number"`
	AnnualIncome     float64   `json:"annual_income,omitempty"`
	EmploymentStatus string    `json:"employment_status,omitempty"`
	EmployerName     string    `json:"employer_name,omitempty"`
	CreditScore      int       `json:"credit_score,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
