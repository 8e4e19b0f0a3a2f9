package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

// ApplyPayment applies a payment to the loan's earliest pending
// installment
func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
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
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	txn, err := h.svc.ApplyPayment(r.Context(), act, id, req.Amount, req.Method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, txn)
}
