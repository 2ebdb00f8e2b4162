package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	httpapi "aroundu-backend/internal/api/http"
	"aroundu-backend/internal/config"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/payment"
	"aroundu-backend/internal/repository/postgres"
	"aroundu-backend/internal/security"
	"aroundu-backend/internal/service"
	"aroundu-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting AroundU Rental Engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Media Store
	var mediaStore storage.MediaStore
	if cfg.Media.Type == "" || cfg.Media.Type == "mock" {
		logger.Info("Using mock media store (local filesystem)", "media_dir", cfg.Media.MediaDir)
		mock, err := storage.NewMockMediaStore(cfg.Media.BaseURL, cfg.Media.MediaDir)
		if err != nil {
			logger.Error("Failed to initialize mock media store", "error", err)
			log.Fatalf("Failed to initialize mock media store: %v", err)
		}
		mediaStore = mock
	} else {
		logger.Error("Unsupported media store type", "type", cfg.Media.Type)
		log.Fatalf("Media store type '%s' not yet implemented", cfg.Media.Type)
	}

	// Initialize Payment Gateway
	gateway := payment.NewMockGateway()
	logger.Info("Using mock payment gateway")

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	dispatcher := service.NewEventDispatcher(store.Events)
	verificationSvc := service.NewVerificationService(
		store.ProximityCodes,
		cfg.Handover.OTPLength,
		time.Duration(cfg.Handover.OTPTTLMinutes)*time.Minute,
	)
	ledgerSvc := service.NewLedgerService(
		store.Transactions,
		store.Items,
		store.Users,
		verificationSvc,
		emailSvc,
		dispatcher,
		cfg.Handover.TrustBonusCents,
		cfg.Handover.TrustBonusMinScore,
	)
	escrowSvc := service.NewEscrowService(store.Transactions, store.Escrow, gateway, dispatcher)
	handoverSvc := service.NewHandoverService(
		store.Transactions,
		store.Proofs,
		store.Checklists,
		store.ProximityCodes,
		verificationSvc,
		ledgerSvc,
		cfg.Handover.OTPRetryLimit,
	)
	trustSvc := service.NewTrustService(store.Transactions, store.Users, store.Trust, dispatcher)
	itemSvc := service.NewItemService(store.Items, store.Users)
	service.NewStatusNotifier(store.Transactions, store.Users, store.Items, emailSvc, dispatcher)

	// Set up HTTP server
	server := httpapi.NewServer(ledgerSvc, escrowSvc, handoverSvc, trustSvc, itemSvc, mediaStore, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), server.Router()); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
