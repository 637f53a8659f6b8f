package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	AI         AIConfig
	Payment    PaymentConfig
	Pipeline   PipelineConfig
	Site       SiteConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// AIConfig points at an OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

type PaymentConfig struct {
	WebhookSecret string
	PaymentExpiry time.Duration
}

type PipelineConfig struct {
	ScanInterval time.Duration
	Concurrency  int
	StageRetries int
	RetryBackoff time.Duration
	// Texts longer than this get a structuring pass even with pages == 1.
	StructureThresholdChars int
}

type SiteConfig struct {
	BaseURL string // public origin for sitemap/robots, no trailing slash
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "smartcopy:smartcopy@tcp(localhost:3306)/smartcopy?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "smartcopy",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     env("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: env("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: env("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    env("CLOUDINARY_API_KEY", ""),
			APISecret: env("CLOUDINARY_API_SECRET", ""),
		},
		AI: AIConfig{
			BaseURL:     env("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      env("AI_API_KEY", ""),
			Model:       env("AI_MODEL", "gpt-4o-mini"),
			Timeout:     120 * time.Second,
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Payment: PaymentConfig{
			WebhookSecret: env("PAYMENT_WEBHOOK_SECRET", ""),
			PaymentExpiry: 30 * time.Minute,
		},
		Pipeline: PipelineConfig{
			ScanInterval:            envDuration("PIPELINE_SCAN_INTERVAL", 3*time.Second),
			Concurrency:             envInt("PIPELINE_CONCURRENCY", 4),
			StageRetries:            3,
			RetryBackoff:            5 * time.Second,
			StructureThresholdChars: 6000,
		},
		Site: SiteConfig{
			BaseURL: env("SITE_BASE_URL", "https://smart-copy.ai"),
		},
		Admin: AdminConfig{
			Email:    env("ADMIN_EMAIL", "admin@smart-copy.ai"),
			Password: env("ADMIN_PASSWORD", "change-me-admin"),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
