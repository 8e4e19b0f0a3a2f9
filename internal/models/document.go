package models

import "time"

// Document is a file attached to a loan application.
type Document struct {
	ID               int64      `json:"id"`
	LoanID           int64      `json:"loan_id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FilePath         string     `json:"-"`
	FileType         string     `json:"file_type"`
	FileSize         int64      `json:"file_size"`
	UploadedBy       int64      `json:"uploaded_by"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	IsVerified       bool       `json:"is_verified"`
	VerifiedBy       *int64     `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}
