package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/loanworks/loan-service/internal/config"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendLoanDecision emails the borrower about an approval or rejection
func (s *Sender) SendLoanDecision(to, fullName string, loan *models.Loan, approved bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}

	body := fmt.Sprintf("Dear %s,\n\n", fullName)
	if approved {
		e.Subject = "Loan Application Approved"
		body += fmt.Sprintf(
			"Your loan application %s has been approved!\n\n"+
				"Loan Details:\n"+
				"- Amount: %s\n"+
				"- Interest Rate: %s%%\n"+
				"- Term: %d months\n"+
				"- Monthly Payment: %s\n",
			loan.LoanNumber,
			loan.PrincipalAmount.StringFixed(2),
			loan.InterestRate.String(),
			loan.TermMonths,
			loan.MonthlyPayment.StringFixed(2),
		)
		if loan.FirstPaymentDate != nil {
			body += fmt.Sprintf("\nFirst payment due: %s\n", loan.FirstPaymentDate.Format("2006-01-02"))
		}
	} else {
		e.Subject = "Loan Application Status Update"
		body += fmt.Sprintf(
			"Your loan application %s has been rejected.\n"+
				"If you have any questions or would like to discuss alternative options, please contact us.\n",
			loan.LoanNumber,
		)
	}
	body += "\nBest regards,\nLoan Management Team"
	e.Text = []byte(body)

	return s.send(e)
}

// SendPaymentReminder sends a payment reminder email
func (s *Sender) SendPaymentReminder(to, fullName string, dueDate time.Time, amount, lateFee string, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Loan Payment Notification"
	} else {
		e.Subject = "Upcoming Loan Payment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", fullName)
	if isOverdue {
		body += fmt.Sprintf(
			"Your loan payment of %s was due on %s and is now overdue.\n"+
				"A late fee of %s has been applied.\n"+
				"Please make the payment as soon as possible to avoid further fees.\n",
			amount, dueDate.Format("2006-01-02"), lateFee,
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your loan payment of %s is due on %s.\n"+
				"Please ensure sufficient funds are available.\n",
			amount, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nLoan Management Team"
	e.Text = []byte(body)

	return s.send(e)
}

// SendPaymentReceipt confirms a successfully applied payment
func (s *Sender) SendPaymentReceipt(to, fullName string, loan *models.Loan, payment *models.Payment) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Payment Received"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"We received your payment of %s for installment %d of loan %s.\n"+
			"Remaining balance: %s\n"+
			"\nBest regards,\nLoan Management Team",
		fullName,
		payment.AmountPaid.StringFixed(2),
		payment.PaymentNumber,
		loan.LoanNumber,
		loan.RemainingBalance.StringFixed(2),
	)
	e.Text = []byte(body)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}
