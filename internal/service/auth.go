package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loanworks/loan-service/internal/lmserr"
	"github.com/loanworks/loan-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new customer user with a hashed password and an
// attached customer profile.
func (s *Service) Register(ctx context.Context, username, email, password, fullName, phone string) (*models.User, error) {
	if username == "" || email == "" || fullName == "" {
		return nil, lmserr.Validationf("username, email, and full name are required")
	}
	if len(password) < 6 {
		return nil, lmserr.Validationf("password must be at least 6 characters long")
	}

	if existing, err := s.store.FindUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, lmserr.Validationf("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
		Phone:        phone,
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		UserID:         user.ID,
		CustomerNumber: fmt.Sprintf("CUST%05d", user.ID),
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token carrying the user
// id and role.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", lmserr.AccessDenied("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", lmserr.AccessDenied("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"exp":  jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Username)
	return tokenString, nil
}
