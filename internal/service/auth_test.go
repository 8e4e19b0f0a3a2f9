package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "newuser", "new@example.com", "hunter22", "New User", "555-0100")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != models.RoleCustomer {
		t.Errorf("role = %s, want customer", user.Role)
	}
	if user.PasswordHash == "hunter22" {
		t.Error("password stored in the clear")
	}

	customer, err := store.FindCustomerByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindCustomerByUserID: %v", err)
	}
	if customer == nil {
		t.Fatal("registration did not create a customer profile")
	}

	tokenString, err := svc.Login(ctx, "newuser", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["role"] != models.RoleCustomer {
		t.Errorf("token role = %v, want customer", claims["role"])
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		fullName string
	}{
		{"missing username", "", "a@example.com", "hunter22", "A"},
		{"short password", "user", "a@example.com", "12345", "A"},
		{"duplicate username", "borrower", "dup@example.com", "hunter22", "Dup"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, tc.fullName, "")
			var verr *lmserr.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "newuser", "new@example.com", "hunter22", "New User", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, tc := range []struct{ name, username, password string }{
		{"wrong password", "newuser", "wrong"},
		{"unknown user", "nobody", "hunter22"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.username, tc.password)
			var aerr *lmserr.AccessDeniedError
			if !errors.As(err, &aerr) {
				t.Errorf("got %v, want AccessDeniedError", err)
			}
		})
	}
}
