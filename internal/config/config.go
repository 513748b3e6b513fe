// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API process needs at startup. The badge
// secret is loaded once here and handed to the codec; it is never logged.
type Config struct {
	Addr           string
	PGDSN          string
	BadgeSecret    string
	BadgeMaxAge    time.Duration
	VerifierURL    string
	AdminUser      string
	AdminPassHash  string
	RateLimitBurst int
	RateLimitPerSec int
}

// Load reads .env (if present) and the QATYSU_* environment variables.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Addr:            getEnv("QATYSU_ADDR", ":8080"),
		PGDSN:           os.Getenv("QATYSU_PG_DSN"),
		BadgeSecret:     os.Getenv("QATYSU_BADGE_SECRET"),
		VerifierURL:     os.Getenv("QATYSU_VERIFIER_URL"),
		AdminUser:       getEnv("QATYSU_ADMIN_USER", "admin"),
		AdminPassHash:   os.Getenv("QATYSU_ADMIN_PASSWORD_HASH"),
		BadgeMaxAge:     60 * time.Second,
		RateLimitBurst:  20,
		RateLimitPerSec: 10,
	}

	if strings.TrimSpace(cfg.BadgeSecret) == "" {
		return Config{}, errors.New("config: QATYSU_BADGE_SECRET is required")
	}

	if raw := os.Getenv("QATYSU_BADGE_MAX_AGE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid QATYSU_BADGE_MAX_AGE %q", raw)
		}
		cfg.BadgeMaxAge = d
	}

	var err error
	if cfg.RateLimitBurst, err = getEnvInt("QATYSU_RATE_BURST", cfg.RateLimitBurst); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerSec, err = getEnvInt("QATYSU_RATE_PER_SEC", cfg.RateLimitPerSec); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q", key, raw)
	}
	return v, nil
}
