package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	JWT       JWTConfig       `yaml:"jwt"`
	Media     MediaConfig     `yaml:"media"`
	Handover  HandoverConfig  `yaml:"handover"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// EmailConfig contains SendGrid settings
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// MediaConfig contains proof media storage settings
type MediaConfig struct {
	Type          string `yaml:"type"`      // "mock" or "s3"
	MediaDir      string `yaml:"media_dir"` // For mock storage
	BaseURL       string `yaml:"base_url"`  // Server base URL for mock URLs
	RetentionDays int    `yaml:"retention_days"`
}

// HandoverConfig contains handover protocol settings
type HandoverConfig struct {
	OTPLength          int   `yaml:"otp_length"`
	OTPRetryLimit      int64 `yaml:"otp_retry_limit"`
	OTPTTLMinutes      int   `yaml:"otp_ttl_minutes"`
	TrustBonusCents    int64 `yaml:"trust_bonus_cents"`
	TrustBonusMinScore int64 `yaml:"trust_bonus_min_score"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MarkOverdueRentals   string `yaml:"mark_overdue_rentals"`
	ExpireProximityCodes string `yaml:"expire_proximity_codes"`
	PurgeExpiredProofs   string `yaml:"purge_expired_proofs"`
	RedeliverEvents      string `yaml:"redeliver_events"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.FromEmail = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Media
	if val := os.Getenv("MEDIA_DIR"); val != "" {
		c.Media.MediaDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Media validation and defaults
	if c.Media.Type == "" {
		c.Media.Type = "mock"
	}
	if c.Media.Type == "mock" && c.Media.MediaDir == "" {
		return fmt.Errorf("media directory is required for mock storage")
	}
	if c.Media.RetentionDays == 0 {
		c.Media.RetentionDays = 30 // Evidence retention window
	}

	// Handover defaults
	if c.Handover.OTPLength == 0 {
		c.Handover.OTPLength = 4
	}
	if c.Handover.OTPLength < 4 || c.Handover.OTPLength > 10 {
		return fmt.Errorf("otp length must be between 4 and 10, got %d", c.Handover.OTPLength)
	}
	if c.Handover.OTPRetryLimit == 0 {
		c.Handover.OTPRetryLimit = 5
	}
	if c.Handover.OTPTTLMinutes == 0 {
		c.Handover.OTPTTLMinutes = 60
	}
	if c.Handover.TrustBonusCents == 0 {
		c.Handover.TrustBonusCents = 1000 // $10.00
	}
	if c.Handover.TrustBonusMinScore == 0 {
		c.Handover.TrustBonusMinScore = 75
	}

	// Scheduler defaults
	if c.Scheduler.MarkOverdueRentals == "" {
		c.Scheduler.MarkOverdueRentals = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.ExpireProximityCodes == "" {
		c.Scheduler.ExpireProximityCodes = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Scheduler.PurgeExpiredProofs == "" {
		c.Scheduler.PurgeExpiredProofs = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.RedeliverEvents == "" {
		c.Scheduler.RedeliverEvents = "0 */5 * * * *" // Every 5 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
