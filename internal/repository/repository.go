package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/loanworks/loan-service/internal/service"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// WithinTx runs fn inside a single transaction. fn returning an error
// rolls everything back; lock and serialization conflicts surface as a
// typed conflict error so callers can retry.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx service.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&repoTx{tx: sqlTx}); err != nil {
		sqlTx.Rollback()
		return mapConflict(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// mapConflict translates Postgres lock/serialization failures into the
// engine's conflict error.
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return lmserr.Conflict("lost the race to mutate the loan; retry the request")
		}
	}
	return err
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO lms.users (username, email, password_hash, full_name, phone, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role, user.IsActive).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE id = $1`, id))
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE username = $1`, username))
}

const userSelect = `
	SELECT id, username, email, password_hash, full_name, phone, role, is_active, created_at
	FROM lms.users`

func (r *Repository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FullName, &user.Phone, &user.Role, &user.IsActive, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateCustomer creates a new customer profile in the database
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO lms.customers (user_id, customer_number, annual_income, employment_status, employer_name, credit_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		customer.UserID, customer.CustomerNumber, customer.AnnualIncome,
		customer.EmploymentStatus, customer.EmployerName, customer.CreditScore).
		Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindCustomerByID retrieves a customer by id
func (r *Repository) FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE id = $1`, id))
}

// FindCustomerByUserID retrieves a customer by the owning user id
func (r *Repository) FindCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	return r.scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE user_id = $1`, userID))
}

const customerSelect = `
	SELECT id, user_id, customer_number, annual_income, employment_status, employer_name, credit_score, created_at
	FROM lms.customers`

func (r *Repository) scanCustomer(row *sql.Row) (*models.Customer, error) {
	customer := &models.Customer{}
	err := row.Scan(&customer.ID, &customer.UserID, &customer.CustomerNumber,
		&customer.AnnualIncome, &customer.EmploymentStatus, &customer.EmployerName,
		&customer.CreditScore, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}
