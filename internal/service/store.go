package service

import (
	"context"
	"time"

	"github.com/loanworks/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the persistence boundary of the engine. Find* methods return
// (nil, nil) when the entity is absent. WithinTx runs fn inside a single
// unit of work that commits when fn returns nil and rolls back otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	FindCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error)

	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoanByID(ctx context.Context, id int64) (*models.Loan, error)
	ListLoansByCustomer(ctx context.Context, customerID int64) ([]models.Loan, error)
	ListLoans(ctx context.Context) ([]models.Loan, error)
	ListPaymentsByLoan(ctx context.Context, loanID int64) ([]models.Payment, error)
	ListTransactionsByLoan(ctx context.Context, loanID int64) ([]models.Transaction, error)
	ListPendingPaymentsDueBy(ctx context.Context, by time.Time) ([]models.Payment, error)
	FindLoanOwner(ctx context.Context, loanID int64) (*models.User, error)
	LoanStats(ctx context.Context) (*models.LoanStats, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	FindNotificationByID(ctx context.Context, id int64) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error

	CreateDocument(ctx context.Context, doc *models.Document) error
	FindDocumentByID(ctx context.Context, id int64) (*models.Document, error)

	ListSettings(ctx context.Context) ([]models.Setting, error)
	UpsertSetting(ctx context.Context, s *models.Setting) error
}

// Tx exposes the mutations that must happen inside a unit of work. The
// Postgres implementation locks the loan row, so two transactions on the
// same loan are serialized at the database as well as by the service's
// per-loan mutex.
type Tx interface {
	FindLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error)
	UpdateLoanDecision(ctx context.Context, loan *models.Loan) error
	UpdateLoanBalance(ctx context.Context, loanID int64, balance decimal.Decimal, status string) error
	CreatePayments(ctx context.Context, payments []models.Payment) error
	NextPendingPayment(ctx context.Context, loanID int64) (*models.Payment, error)
	MarkPaymentPaid(ctx context.Context, payment *models.Payment) error
	SetPaymentLateFee(ctx context.Context, paymentID int64, fee decimal.Decimal) error
	CountPendingPayments(ctx context.Context, loanID int64) (int, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
}
