package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/loanworks/loan-service/internal/amortization"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/middleware"
	"github.com/loanworks/loan-service/internal/report"
	"github.com/loanworks/loan-service/internal/service"
	"github.com/shopspring/decimal"
)

func loanID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, lmserr.Validationf("invalid loan id")
	}
	return id, nil
}

func actor(r *http.Request) (service.Actor, bool) {
	return middleware.ActorFrom(r.Context())
}

type calculateRequest struct {
	Principal decimal.Decimal `json:"principal"`
	Rate      decimal.Decimal `json:"rate"`
	Term      int             `json:"term"`
}

// Calculate runs the amortization calculator. Public: no loan context or
// authentication is required.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := amortization.Compute(req.Principal, req.Rate, req.Term)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type applyRequest struct {
	LoanType  string          `json:"loan_type"`
	Principal decimal.Decimal `json:"principal"`
	Rate      decimal.Decimal `json:"rate"`
	Term      int             `json:"term"`
}

// Apply submits a loan application for the acting customer
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req applyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	loan, err := h.svc.SubmitApplication(r.Context(), act, req.LoanType, req.Principal, req.Rate, req.Term)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, loan)
}

// ListLoans returns the actor's loans (all loans for staff)
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	loans, err := h.svc.ListLoans(r.Context(), act)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loans)
}

// LoanDetail returns a loan together with its repayment schedule
func (h *Handler) LoanDetail(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	detail, err := h.svc.GetLoanDetail(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// Approve transitions a pending loan to approved
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.svc.Approve(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

// Reject transitions a pending loan to rejected
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.svc.Reject(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

// Transactions returns the loan's audit trail
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	txns, err := h.svc.ListTransactions(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// Report streams the loan's spreadsheet report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id, err := loanID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	detail, err := h.svc.GetLoanDetail(r.Context(), act, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan := detail.Loan

	result, err := amortization.Compute(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths)
	if err != nil {
		h.writeError(w, err)
		return
	}
	owner, err := h.svc.LoanOwnerName(r.Context(), loan.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	buf, err := report.Render(loan, owner, result)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(loan)+`"`)
	w.Write(buf.Bytes())
}
