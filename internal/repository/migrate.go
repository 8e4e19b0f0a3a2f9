package repository

import (
	"context"
	"fmt"
)

// Migrate creates the schema and tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS lms`,
		`CREATE TABLE IF NOT EXISTS lms.users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(80) NOT NULL UNIQUE,
			email VARCHAR(120) NOT NULL UNIQUE,
			password_hash VARCHAR(120) NOT NULL,
			full_name VARCHAR(100) NOT NULL,
			phone VARCHAR(20) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'customer',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lms.customers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES lms.users(id),
			customer_number VARCHAR(20) NOT NULL UNIQUE,
			annual_income NUMERIC(14,2) NOT NULL DEFAULT 0,
			employment_status VARCHAR(50) NOT NULL DEFAULT '',
			employer_name VARCHAR(100) NOT NULL DEFAULT '',
			credit_score INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lms.loans (
			id BIGSERIAL PRIMARY KEY,
			loan_number VARCHAR(20) NOT NULL UNIQUE,
			customer_id BIGINT NOT NULL REFERENCES lms.customers(id),
			loan_type VARCHAR(50) NOT NULL,
			principal_amount NUMERIC(14,2) NOT NULL,
			interest_rate NUMERIC(6,3) NOT NULL,
			term_months INT NOT NULL,
			monthly_payment NUMERIC(14,2) NOT NULL,
			total_amount NUMERIC(14,2) NOT NULL,
			remaining_balance NUMERIC(14,2) NOT NULL CHECK (remaining_balance >= 0),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			disbursement_date TIMESTAMPTZ,
			first_payment_date TIMESTAMPTZ,
			approved_by BIGINT REFERENCES lms.users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lms.payments (
			id BIGSERIAL PRIMARY KEY,
			loan_id BIGINT NOT NULL REFERENCES lms.loans(id),
			payment_number INT NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			amount_due NUMERIC(14,2) NOT NULL,
			principal_amount NUMERIC(14,2) NOT NULL,
			interest_amount NUMERIC(14,2) NOT NULL,
			amount_paid NUMERIC(14,2) NOT NULL DEFAULT 0,
			late_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			payment_method VARCHAR(50),
			notes TEXT,
			UNIQUE (loan_id, payment_number)
		)`,
		`CREATE TABLE IF NOT EXISTS lms.transactions (
			id BIGSERIAL PRIMARY KEY,
			loan_id BIGINT NOT NULL REFERENCES lms.loans(id),
			type VARCHAR(50) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			description VARCHAR(200) NOT NULL DEFAULT '',
			created_by BIGINT NOT NULL REFERENCES lms.users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lms.notifications (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES lms.users(id),
			title VARCHAR(200) NOT NULL,
			message TEXT NOT NULL,
			kind VARCHAR(50) NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			related_loan_id BIGINT REFERENCES lms.loans(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lms.documents (
			id BIGSERIAL PRIMARY KEY,
			loan_id BIGINT NOT NULL REFERENCES lms.loans(id),
			filename VARCHAR(255) NOT NULL,
			original_filename VARCHAR(255) NOT NULL,
			file_path VARCHAR(500) NOT NULL,
			file_type VARCHAR(50) NOT NULL,
			file_size BIGINT NOT NULL,
			uploaded_by BIGINT NOT NULL REFERENCES lms.users(id),
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verified_by BIGINT REFERENCES lms.users(id),
			verified_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS lms.settings (
			key VARCHAR(100) PRIMARY KEY,
			value TEXT NOT NULL,
			description VARCHAR(500),
			updated_by BIGINT NOT NULL REFERENCES lms.users(id),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_loan_status ON lms.payments (loan_id, status, payment_number)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_loan ON lms.transactions (loan_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
