package service

import (
	"context"
	"fmt"

	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

// A payment may exceed the installment's total due by at most 10%.
var overpaymentCap = decimal.RequireFromString("1.1")

// ApplyPayment applies an incoming payment to the earliest pending
// installment of the loan. The read-compare-write sequence runs under the
// loan's mutex inside a single unit of work, so two concurrent payments
// on the same loan can never settle the same row. On success the row is
// marked paid, the remaining balance is decremented (floored at zero),
// and a payment transaction is appended to the audit trail.
func (s *Service) ApplyPayment(ctx context.Context, actor Actor, loanID int64, amount decimal.Decimal, method string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, lmserr.Validationf("payment amount must be greater than zero")
	}
	if method == "" {
		method = "online"
	}

	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeLoanAccess(ctx, actor, loan); err != nil {
		return nil, err
	}

	mu := s.locks.forLoan(loanID)
	mu.Lock()
	defer mu.Unlock()

	var (
		txn     *models.Transaction
		settled *models.Payment
		updated *models.Loan
	)
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		loan, err := tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return lmserr.NotFound("loan", loanID)
		}
		switch loan.Status {
		case models.LoanStatusPending:
			return lmserr.InvalidStatef("loan %s has not been disbursed", loan.LoanNumber)
		case models.LoanStatusRejected:
			return lmserr.InvalidStatef("loan %s was rejected", loan.LoanNumber)
		}

		payment, err := tx.NextPendingPayment(ctx, loanID)
		if err != nil {
			return err
		}
		if payment == nil {
			return lmserr.InvalidStatef("no outstanding installment for loan %s", loan.LoanNumber)
		}

		ceiling := payment.TotalDue().Mul(overpaymentCap)
		if amount.GreaterThan(ceiling) {
			return lmserr.Overpayment(ceiling.RoundBank(2))
		}

		payment.AmountPaid = amount
		payment.Status = models.PaymentStatusPaid
		payment.PaymentMethod = method
		if err := tx.MarkPaymentPaid(ctx, payment); err != nil {
			return err
		}

		balance := loan.RemainingBalance.Sub(amount)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		status := loan.Status
		remaining, err := tx.CountPendingPayments(ctx, loanID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			status = models.LoanStatusClosed
		}
		if err := tx.UpdateLoanBalance(ctx, loanID, balance, status); err != nil {
			return err
		}
		loan.RemainingBalance = balance
		loan.Status = status

		txn = &models.Transaction{
			LoanID:      loanID,
			Type:        models.TransactionPayment,
			Amount:      amount,
			Description: fmt.Sprintf("Payment for installment %d", payment.PaymentNumber),
			CreatedBy:   actor.UserID,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		settled = payment
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Payment of %s applied to loan %d installment %d", amount.StringFixed(2), loanID, settled.PaymentNumber)
	s.dispatcher.PaymentApplied(ctx, updated, settled)
	return txn, nil
}
