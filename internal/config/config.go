package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Overdue sweep cron expression
	OverdueSweepSchedule string

	// Payment allocation policy: principal_only or interest_first
	AllocationPolicy string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		Auth0Domain:          getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:        getEnv("AUTH0_AUDIENCE", ""),
		Port:                 getEnv("PORT", "8080"),
		CORSOrigins:          strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                  getEnv("ENV", "development"),
		OverdueSweepSchedule: getEnv("OVERDUE_SWEEP_SCHEDULE", "0 2 * * *"),
		AllocationPolicy:     getEnv("ALLOCATION_POLICY", "principal_only"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	switch c.AllocationPolicy {
	case "principal_only", "interest_first":
	default:
		return fmt.Errorf("ALLOCATION_POLICY must be principal_only or interest_first")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
