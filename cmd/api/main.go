package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/loanworks/loan-service/internal/config"
	"github.com/loanworks/loan-service/internal/docstore"
	"github.com/loanworks/loan-service/internal/handler"
	"github.com/loanworks/loan-service/internal/integrations/cbr"
	"github.com/loanworks/loan-service/internal/middleware"
	"github.com/loanworks/loan-service/internal/notify"
	"github.com/loanworks/loan-service/internal/repository"
	"github.com/loanworks/loan-service/internal/scheduler"
	"github.com/loanworks/loan-service/internal/service"
	"github.com/loanworks/loan-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	sender := email.NewSender(cfg, logger)
	dispatcher := notify.NewDispatcher(repo, sender, logger)
	svc := service.NewService(repo, dispatcher, logger, cfg)
	docs, err := docstore.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("Failed to initialize document store: %v", err)
	}
	h := handler.NewHandler(svc, docs, logger)
	cbrClient := cbr.NewClient(cfg, logger)

	// Payment reminder job
	reminder := scheduler.NewReminder(repo, sender, logger)
	if err := reminder.Start(); err != nil {
		logger.Fatalf("Failed to start reminder job: %v", err)
	}
	defer reminder.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/api/loan-calculator", h.Calculate).Methods("POST")
	r.HandleFunc("/key-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := cbrClient.SuggestedRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.Auth(cfg))
	authRouter.HandleFunc("/loans", h.ListLoans).Methods("GET")
	authRouter.HandleFunc("/loans", h.Apply).Methods("POST")
	authRouter.HandleFunc("/loans/{id:[0-9]+}", h.LoanDetail).Methods("GET")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/payments", h.ApplyPayment).Methods("POST")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/transactions", h.Transactions).Methods("GET")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/report", h.Report).Methods("GET")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/documents", h.UploadDocument).Methods("POST")
	authRouter.HandleFunc("/documents/{id:[0-9]+}", h.DownloadDocument).Methods("GET")
	authRouter.HandleFunc("/notifications", h.Notifications).Methods("GET")
	authRouter.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods("POST")

	// Staff-only routes
	staffRouter := authRouter.PathPrefix("/").Subrouter()
	staffRouter.Use(middleware.RequireStaff)
	staffRouter.HandleFunc("/loans/{id:[0-9]+}/approve", h.Approve).Methods("POST")
	staffRouter.HandleFunc("/loans/{id:[0-9]+}/reject", h.Reject).Methods("POST")
	staffRouter.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	staffRouter.HandleFunc("/admin/settings", h.Settings).Methods("GET")
	staffRouter.HandleFunc("/admin/settings", h.UpdateSetting).Methods("PUT")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
