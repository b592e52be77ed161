package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	StoreQuotaBytes    int64
	BaseURL            string
	SignaturePath      string
	RequireKnownStaff  bool
	MailWebhookURL     string
	MailTimeout        time.Duration
	CORSAllowedOrigins []string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	LogConsole         bool
	LogFile            string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// Fall back to .env; environment variables may also be set directly
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	quota, err := getEnvInt64("STORE_QUOTA_BYTES", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	mailTimeout, err := getEnvDuration("MAIL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	requireKnownStaff, err := getEnvBool("REQUIRE_KNOWN_STAFF", false)
	if err != nil {
		return nil, err
	}
	logConsole, err := getEnvBool("LOG_CONSOLE", env == "development")
	if err != nil {
		return nil, err
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "maintenance_orders.db"),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		StoreQuotaBytes:    quota,
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		SignaturePath:      getEnv("SIGNATURE_PATH", "signature.html"),
		RequireKnownStaff:  requireKnownStaff,
		MailWebhookURL:     getEnv("MAIL_WEBHOOK_URL", ""),
		MailTimeout:        mailTimeout,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogConsole:         logConsole,
		LogFile:            getEnv("LOG_FILE", ""),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StoreQuotaBytes < 0 {
		return fmt.Errorf("STORE_QUOTA_BYTES must not be negative")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// BackupEnabled returns true if an S3 bucket is configured for backups
func (c *Config) BackupEnabled() bool {
	return c.AWSS3Bucket != ""
}

// NotificationsEnabled returns true if a mail webhook is configured
func (c *Config) NotificationsEnabled() bool {
	return c.MailWebhookURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
