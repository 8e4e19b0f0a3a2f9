package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/loanworks/loan-service/internal/amortization"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/shopspring/decimal"
)

// Installments fall due at 30-day intervals from the first payment date.
const installmentInterval = 30 * 24 * time.Hour

// SubmitApplication creates a pending loan for the actor's customer
// profile. No schedule rows are created until approval.
func (s *Service) SubmitApplication(ctx context.Context, actor Actor, loanType string, principal, ratePercent decimal.Decimal, termMonths int) (*models.Loan, error) {
	if loanType == "" {
		return nil, lmserr.Validationf("loan type is required")
	}

	result, err := amortization.Compute(principal, ratePercent, termMonths)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.FindCustomerByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, lmserr.NotFound("customer profile for user", actor.UserID)
	}

	loan := &models.Loan{
		LoanNumber:       generateLoanNumber(s.now()),
		CustomerID:       customer.ID,
		LoanType:         loanType,
		PrincipalAmount:  principal,
		InterestRate:     ratePercent,
		TermMonths:       termMonths,
		MonthlyPayment:   result.MonthlyPayment,
		TotalAmount:      result.TotalPayment,
		RemainingBalance: result.TotalPayment,
		Status:           models.LoanStatusPending,
	}
	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan application %s submitted for customer %d", loan.LoanNumber, customer.ID)
	return loan, nil
}

// Approve transitions a pending loan to approved, materializing its
// repayment schedule in one unit of work. The schedule rows carry the
// calculator-derived principal and interest components. The approval
// notification is fire-and-forget and cannot roll back the transition.
func (s *Service) Approve(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error) {
	if !actor.Staff() {
		return nil, lmserr.AccessDenied("only admins and managers may approve loans")
	}

	mu := s.locks.forLoan(loanID)
	mu.Lock()
	defer mu.Unlock()

	var approved *models.Loan
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		loan, err := tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return lmserr.NotFound("loan", loanID)
		}
		if loan.Status != models.LoanStatusPending {
			return lmserr.InvalidStatef("loan %s is %s; only pending loans can be approved", loan.LoanNumber, loan.Status)
		}

		result, err := amortization.Compute(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		firstPayment := now.Add(installmentInterval)
		loan.Status = models.LoanStatusApproved
		loan.DisbursementDate = &now
		loan.FirstPaymentDate = &firstPayment
		loan.ApprovedBy = &actor.UserID
		if err := tx.UpdateLoanDecision(ctx, loan); err != nil {
			return err
		}

		payments := make([]models.Payment, 0, loan.TermMonths)
		for i, entry := range result.Schedule {
			payments = append(payments, models.Payment{
				LoanID:          loan.ID,
				PaymentNumber:   entry.Month,
				DueDate:         firstPayment.Add(time.Duration(i) * installmentInterval),
				AmountDue:       loan.MonthlyPayment,
				PrincipalAmount: entry.Principal,
				InterestAmount:  entry.Interest,
				AmountPaid:      decimal.Zero,
				LateFee:         decimal.Zero,
				Status:          models.PaymentStatusPending,
			})
		}
		if err := tx.CreatePayments(ctx, payments); err != nil {
			return err
		}

		if err := tx.CreateTransaction(ctx, &models.Transaction{
			LoanID:      loan.ID,
			Type:        models.TransactionDisbursement,
			Amount:      loan.PrincipalAmount,
			Description: fmt.Sprintf("Disbursement of loan %s", loan.LoanNumber),
			CreatedBy:   actor.UserID,
		}); err != nil {
			return err
		}

		approved = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s approved by user %d", approved.LoanNumber, actor.UserID)
	s.dispatcher.LoanApproved(ctx, approved)
	return approved, nil
}

// Reject transitions a pending loan to rejected. The state is terminal;
// no schedule rows are created.
func (s *Service) Reject(ctx context.Context, actor Actor, loanID int64) (*models.Loan, error) {
	if !actor.Staff() {
		return nil, lmserr.AccessDenied("only admins and managers may reject loans")
	}

	mu := s.locks.forLoan(loanID)
	mu.Lock()
	defer mu.Unlock()

	var rejected *models.Loan
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		loan, err := tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return lmserr.NotFound("loan", loanID)
		}
		if loan.Status != models.LoanStatusPending {
			return lmserr.InvalidStatef("loan %s is %s; only pending loans can be rejected", loan.LoanNumber, loan.Status)
		}

		loan.Status = models.LoanStatusRejected
		if err := tx.UpdateLoanDecision(ctx, loan); err != nil {
			return err
		}
		rejected = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s rejected by user %d", rejected.LoanNumber, actor.UserID)
	s.dispatcher.LoanRejected(ctx, rejected)
	return rejected, nil
}

func generateLoanNumber(now time.Time) string {
	return fmt.Sprintf("LN%s%04d", now.Format("20060102"), rand.Intn(9000)+1000)
}
