package models

import "time"

// Notification kinds.
const (
	NotificationLoanStatus      = "loan_status"
	NotificationPaymentReminder = "payment_reminder"
	NotificationPaymentReceipt  = "payment_receipt"
)

// Notification is an in-app notice for a user.
type Notification struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Kind          string    `json:"kind"`
	IsRead        bool      `json:"is_read"`
	RelatedLoanID *int64    `json:"related_loan_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
