package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"aroundu-backend/internal/config"
	"aroundu-backend/internal/jobs"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository/postgres"
	"aroundu-backend/internal/scheduler"
	"aroundu-backend/internal/service"
	"aroundu-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-rentals', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting AroundU Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Media Store
	mediaStore, err := storage.NewMockMediaStore(cfg.Media.BaseURL, cfg.Media.MediaDir)
	if err != nil {
		logger.Error("Failed to initialize media store", "error", err)
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	// Initialize Services
	emailService := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	dispatcher := service.NewEventDispatcher(store.Events)
	verificationService := service.NewVerificationService(
		store.ProximityCodes,
		cfg.Handover.OTPLength,
		time.Duration(cfg.Handover.OTPTTLMinutes)*time.Minute,
	)
	service.NewStatusNotifier(store.Transactions, store.Users, store.Items, emailService, dispatcher)
	service.NewTrustService(store.Transactions, store.Users, store.Trust, dispatcher)

	jobServices := &jobs.Services{
		Email:        emailService,
		Verification: verificationService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, jobServices, dispatcher, mediaStore, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "mark-overdue-rentals":
		jobRunner.MarkOverdueRentals()
	case "expire-proximity-codes":
		jobRunner.ExpireProximityCodes()
	case "purge-expired-proofs":
		jobRunner.PurgeExpiredProofs()
	case "redeliver-events":
		jobRunner.RedeliverEvents()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-rentals\n")
		fmt.Printf("  - expire-proximity-codes\n")
		fmt.Printf("  - purge-expired-proofs\n")
		fmt.Printf("  - redeliver-events\n")
		fmt.Printf("  - all-nightly\n")
	}
}
