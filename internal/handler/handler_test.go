package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	h := &Handler{log: logger}

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", lmserr.Validationf("bad input"), http.StatusBadRequest},
		{"not found", lmserr.NotFound("loan", 42), http.StatusNotFound},
		{"access denied", lmserr.AccessDenied("not yours"), http.StatusForbidden},
		{"invalid state", lmserr.InvalidStatef("already decided"), http.StatusConflict},
		{"conflict", lmserr.Conflict("lost the race"), http.StatusConflict},
		{"overpayment", lmserr.Overpayment(decimal.RequireFromString("977.34")), http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("submit: %w", lmserr.Validationf("bad input")), http.StatusBadRequest},
		{"unknown", errors.New("driver broke"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, tc.err)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("response carries no error message")
			}
			if tc.wantStatus == http.StatusInternalServerError && body["error"] != "Internal server error" {
				t.Errorf("internal errors must not leak detail, got %q", body["error"])
			}
		})
	}
}
