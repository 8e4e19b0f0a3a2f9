package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loanworks/loan-service/internal/models"
)

// CreateDocument records document metadata for a loan
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO lms.documents (loan_id, filename, original_filename, file_path, file_type, file_size, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, uploaded_at`
	err := r.db.QueryRowContext(ctx, query,
		doc.LoanID, doc.Filename, doc.OriginalFilename, doc.FilePath,
		doc.FileType, doc.FileSize, doc.UploadedBy).
		Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// FindDocumentByID retrieves document metadata by id
func (r *Repository) FindDocumentByID(ctx context.Context, id int64) (*models.Document, error) {
	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, loan_id, filename, original_filename, file_path, file_type, file_size,
			uploaded_by, uploaded_at, is_verified, verified_by, verified_at
		FROM lms.documents
		WHERE id = $1`, id).
		Scan(&doc.ID, &doc.LoanID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath,
			&doc.FileType, &doc.FileSize, &doc.UploadedBy, &doc.UploadedAt,
			&doc.IsVerified, &doc.VerifiedBy, &doc.VerifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return doc, nil
}

// ListSettings retrieves all system settings
func (r *Repository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, value, COALESCE(description, ''), updated_by, updated_at
		FROM lms.settings
		ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings, nil
}

// UpsertSetting creates or updates a system setting
func (r *Repository) UpsertSetting(ctx context.Context, s *models.Setting) error {
	query := `
		INSERT INTO lms.settings (key, value, description, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, description = EXCLUDED.description,
			updated_by = EXCLUDED.updated_by, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.Description, s.UpdatedBy); err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}
