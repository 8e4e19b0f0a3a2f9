package models

import "time"

// Roles recognized by the service.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
)

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsStaff reports whether the user may approve, reject, or administer loans.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
