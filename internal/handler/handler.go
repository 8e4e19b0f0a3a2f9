package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/loanworks/loan-service/internal/docstore"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc  *service.Service
	docs *docstore.Store
	log  *logrus.Logger
}

func NewHandler(svc *service.Service, docs *docstore.Store, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, docs: docs, log: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		validation   *lmserr.ValidationError
		notFound     *lmserr.NotFoundError
		accessDenied *lmserr.AccessDeniedError
		invalidState *lmserr.InvalidStateError
		conflict     *lmserr.ConflictError
		overpayment  *lmserr.OverpaymentError
	)
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &accessDenied):
		status = http.StatusForbidden
	case errors.As(err, &invalidState):
		status = http.StatusConflict
	case errors.As(err, &conflict):
		status = http.StatusConflict
	case errors.As(err, &overpayment):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
		h.writeJSON(w, status, map[string]string{"error": "Internal server error"})
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return lmserr.Validationf("invalid request body")
	}
	return nil
}
