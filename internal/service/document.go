package service

import (
	"context"

	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
)

// AttachDocument records an uploaded document against a loan the actor
// may access. The file itself is stored by the document store; this only
// persists the metadata.
func (s *Service) AttachDocument(ctx context.Context, actor Actor, loanID int64, doc *models.Document) error {
	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if err := s.authorizeLoanAccess(ctx, actor, loan); err != nil {
		return err
	}
	doc.LoanID = loanID
	doc.UploadedBy = actor.UserID
	return s.store.CreateDocument(ctx, doc)
}

// GetDocument returns document metadata, enforcing access through the
// owning loan.
func (s *Service) GetDocument(ctx context.Context, actor Actor, documentID int64) (*models.Document, error) {
	doc, err := s.store.FindDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, lmserr.NotFound("document", documentID)
	}
	loan, err := s.loadLoan(ctx, doc.LoanID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeLoanAccess(ctx, actor, loan); err != nil {
		return nil, err
	}
	return doc, nil
}
