// Package config provides configuration loaded from environment variables
// for the server, the coin economy, and auth.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server holds everything the serve command needs to start.
type Server struct {
	// Port the HTTP server listens on.
	Port int
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string
	// GeminiAPIKey authenticates the LLM client.
	GeminiAPIKey string
	// AdminAPIKey gates the coin credit endpoint. Empty disables it.
	AdminAPIKey string
	// Coins configures the coin economy.
	Coins Coins
}

// Coins configures the coin economy: how many coins a user gets and how
// the balance resets.
type Coins struct {
	// DailyAllotment is the balance a fresh or reset account holds.
	DailyAllotment int
	// ResetPolicy is "rolling" or "calendar".
	ResetPolicy string
	// ResetPeriod is the rolling window length. Ignored for calendar.
	ResetPeriod time.Duration
	// Timezone names the location for calendar-day resets.
	Timezone string
}

// NewServerConfig builds server configuration from environment variables.
// PORT (default 8080), DATABASE_URL (required), GEMINI_API_KEY (required),
// ADMIN_API_KEY (optional), COIN_DAILY_ALLOTMENT (default 5),
// COIN_RESET_POLICY (default "rolling"), COIN_RESET_HOURS (default 24),
// COIN_RESET_TIMEZONE (default "UTC").
func NewServerConfig() (*Server, error) {
	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	coins, err := NewCoinsConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Server{
		Port:         port,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		AdminAPIKey:  os.Getenv("ADMIN_API_KEY"),
		Coins:        *coins,
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewCoinsConfig builds coin economy configuration from environment
// variables. Used directly by admin CLI commands that touch balances
// without starting the server.
func NewCoinsConfig() (*Coins, error) {
	allotment, err := intEnv("COIN_DAILY_ALLOTMENT", 5)
	if err != nil {
		return nil, err
	}
	resetHours, err := intEnv("COIN_RESET_HOURS", 24)
	if err != nil {
		return nil, err
	}

	policy := os.Getenv("COIN_RESET_POLICY")
	if policy == "" {
		policy = "rolling"
	}
	tz := os.Getenv("COIN_RESET_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}

	coins := &Coins{
		DailyAllotment: allotment,
		ResetPolicy:    policy,
		ResetPeriod:    time.Duration(resetHours) * time.Hour,
		Timezone:       tz,
	}
	if err := coins.normalize(); err != nil {
		return nil, err
	}
	return coins, nil
}

// normalize validates the configuration.
func (c *Server) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	return c.Coins.normalize()
}

func (c *Coins) normalize() error {
	if c.DailyAllotment < 1 {
		return fmt.Errorf("COIN_DAILY_ALLOTMENT must be at least 1, got: %d", c.DailyAllotment)
	}
	if c.ResetPolicy != "rolling" && c.ResetPolicy != "calendar" {
		return fmt.Errorf("COIN_RESET_POLICY must be \"rolling\" or \"calendar\", got: %q", c.ResetPolicy)
	}
	if c.ResetPolicy == "rolling" && c.ResetPeriod < time.Hour {
		return fmt.Errorf("COIN_RESET_HOURS must be at least 1, got: %v", c.ResetPeriod)
	}
	if c.ResetPolicy == "calendar" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid COIN_RESET_TIMEZONE %q: %w", c.Timezone, err)
		}
	}
	return nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return v, nil
}
