// Package middleware guards routes with JWT authentication and role
// checks. Denied requests get an explicit status code; there are no
// redirects.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/loanworks/loan-service/internal/config"
	"github.com/loanworks/loan-service/internal/service"
)

type contextKey struct{}

var actorKey contextKey

// Auth validates the Bearer token and injects the actor into the request
// context.
func Auth(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				http.Error(w, "Missing or malformed authorization header", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			userID, err := strconv.ParseInt(sub, 10, 64)
			if err != nil {
				http.Error(w, "Invalid token subject", http.StatusUnauthorized)
				return
			}
			role, _ := claims["role"].(string)

			actor := service.Actor{UserID: userID, Role: role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

// RequireStaff rejects requests from actors without an admin or manager
// role.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if !actor.Staff() {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFrom extracts the authenticated actor from the context.
func ActorFrom(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(service.Actor)
	return actor, ok
}
