package jobs

import (
	"aroundu-backend/internal/config"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository/postgres"
	"aroundu-backend/internal/service"
	"aroundu-backend/internal/storage"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store      *postgres.Store
	services   *Services
	dispatcher *service.EventDispatcher
	media      storage.MediaStore
	config     *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Email        service.EmailService
	Verification service.VerificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store *postgres.Store, services *Services, dispatcher *service.EventDispatcher, media storage.MediaStore, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:      store,
		services:   services,
		dispatcher: dispatcher,
		media:      media,
		config:     cfg,
	}
}

// Config exposes the configuration for the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueRentals()
	jr.PurgeExpiredProofs()
}
