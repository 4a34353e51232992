package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

func (p OAuthProvider) Enabled() bool {
	return p.Key != "" && p.Secret != ""
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

// Enabled reports whether every field needed for logo uploads is set.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != "" && c.PublicBaseURL != ""
}

type Config struct {
	Addr            string
	DatabasePath    string
	SessionLifetime time.Duration
	RoundSpacing    time.Duration
	CORSOrigins     []string

	Discord OAuthProvider
	Google  OAuthProvider
	R2      R2Config
}

// Load reads the configuration from the environment, loading a .env file first
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionLifetime, err := durationEnv("SESSION_LIFETIME", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	roundSpacing, err := durationEnv("ROUND_SPACING", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:            getEnv("ADDR", ":8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "esports_bracket.db"),
		SessionLifetime: sessionLifetime,
		RoundSpacing:    roundSpacing,
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Discord: OAuthProvider{
			Key:         os.Getenv("DISCORD_KEY"),
			Secret:      os.Getenv("DISCORD_SECRET"),
			CallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
		},
		Google: OAuthProvider{
			Key:         os.Getenv("GOOGLE_KEY"),
			Secret:      os.Getenv("GOOGLE_SECRET"),
			CallbackURL: os.Getenv("GOOGLE_CALLBACK_URL"),
		},
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("R2_BUCKET"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	if cfg.RoundSpacing <= 0 {
		return nil, fmt.Errorf("ROUND_SPACING must be positive, got %s", cfg.RoundSpacing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
