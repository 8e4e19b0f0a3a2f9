// Package amortization computes annuity repayment schedules. It is pure:
// identical inputs always produce identical output.
package amortization

import (
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/shopspring/decimal"
)

// All currency amounts are rounded to 2 decimal places with banker's
// rounding so calculator and ledger totals reconcile.
const currencyPlaces = 2

var (
	monthsPerYearTimes100 = decimal.NewFromInt(1200)
	one                   = decimal.NewFromInt(1)
)

// Entry is one month of the repayment schedule.
type Entry struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

// Result holds the computed payment figures and the full schedule.
type Result struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	Schedule       []Entry         `json:"schedule"`
}

// Compute derives the monthly payment and full amortization schedule for
// the given principal, annual rate in percent, and term in months.
// Invalid inputs fail fast; nothing is clamped silently.
func Compute(principal, annualRatePercent decimal.Decimal, termMonths int) (*Result, error) {
	if !principal.IsPositive() {
		return nil, lmserr.Validationf("principal must be greater than zero")
	}
	if annualRatePercent.IsNegative() {
		return nil, lmserr.Validationf("interest rate must not be negative")
	}
	if termMonths <= 0 {
		return nil, lmserr.Validationf("term must be greater than zero months")
	}

	term := decimal.NewFromInt(int64(termMonths))
	monthlyRate := annualRatePercent.Div(monthsPerYearTimes100)

	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = principal.DivRound(term, currencyPlaces)
	} else {
		// payment = P * r(1+r)^n / ((1+r)^n - 1)
		growth := one.Add(monthlyRate).Pow(term)
		payment = principal.Mul(monthlyRate).Mul(growth).
			DivRound(growth.Sub(one), currencyPlaces+6).
			RoundBank(currencyPlaces)
	}

	total := payment.Mul(term)
	result := &Result{
		MonthlyPayment: payment,
		TotalPayment:   total,
		TotalInterest:  total.Sub(principal),
		Schedule:       make([]Entry, 0, termMonths),
	}

	balance := principal
	for month := 1; month <= termMonths; month++ {
		interest := balance.Mul(monthlyRate).RoundBank(currencyPlaces)
		principalPart := payment.Sub(interest)
		rowPayment := payment
		if month == termMonths {
			// Final row absorbs accumulated rounding drift so the
			// balance lands exactly on zero.
			principalPart = balance
			rowPayment = principalPart.Add(interest)
		}
		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		result.Schedule = append(result.Schedule, Entry{
			Month:     month,
			Payment:   rowPayment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return result, nil
}
