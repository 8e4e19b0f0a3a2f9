// Package report renders a loan summary and its amortization schedule as
// a spreadsheet. It is a read-only consumer of the loan and calculator
// output and triggers no mutation.
package report

import (
	"bytes"
	"fmt"

	"github.com/loanworks/loan-service/internal/amortization"
	"github.com/loanworks/loan-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const sheet = "Loan Report"

// Render produces an xlsx workbook for the loan.
func Render(loan *models.Loan, borrowerName string, result *amortization.Result) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	summary := [][]any{
		{"Loan Number", loan.LoanNumber},
		{"Customer", borrowerName},
		{"Loan Type", loan.LoanType},
		{"Principal Amount", loan.PrincipalAmount.StringFixed(2)},
		{"Interest Rate", loan.InterestRate.String() + "%"},
		{"Term (Months)", loan.TermMonths},
		{"Monthly Payment", loan.MonthlyPayment.StringFixed(2)},
		{"Total Amount", loan.TotalAmount.StringFixed(2)},
		{"Remaining Balance", loan.RemainingBalance.StringFixed(2)},
		{"Status", loan.Status},
		{"Created", loan.CreatedAt.Format("2006-01-02")},
	}
	row := 1
	for _, pair := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &pair); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
		row++
	}

	row++
	header := []any{"Month", "Payment", "Principal", "Interest", "Balance"}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return nil, fmt.Errorf("failed to write schedule header: %w", err)
	}
	for _, entry := range result.Schedule {
		row++
		line := []any{
			entry.Month,
			entry.Payment.StringFixed(2),
			entry.Principal.StringFixed(2),
			entry.Interest.StringFixed(2),
			entry.Balance.StringFixed(2),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, fmt.Errorf("failed to write schedule row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	return buf, nil
}

// Filename is the suggested download name for a loan's report.
func Filename(loan *models.Loan) string {
	return fmt.Sprintf("loan_report_%s.xlsx", loan.LoanNumber)
}
