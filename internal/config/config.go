package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// KIE (Veo video generation)
	KieAPIKey        string
	KieAPIBaseURL    string
	KieQualityModel  string
	KieFastModel     string
	KieCallbackToken string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Events
	RedisAddr    string
	RedisChannel string

	// Storage
	SignedURLTTL  time.Duration
	ArchiveURLTTL time.Duration
	MaxUploadMB   int

	// Server
	Port               string
	Environment        string
	BaseURL            string
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		KieAPIKey:        getEnv("KIE_API_KEY", ""),
		KieAPIBaseURL:    getEnv("KIE_API_BASE", "https://api.kie.ai"),
		KieQualityModel:  getEnv("KIE_QUALITY_MODEL", "veo3"),
		KieFastModel:     getEnv("KIE_FAST_MODEL", "veo3_fast"),
		KieCallbackToken: getEnv("KIE_CALLBACK_TOKEN", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "dreamcut"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "dreamcut-events"),

		SignedURLTTL:  getEnvSeconds("SIGNED_URL_TTL_SECONDS", 3600),
		ArchiveURLTTL: getEnvSeconds("ARCHIVE_URL_TTL_SECONDS", 86400),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 50),

		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.KieAPIKey == "" {
		return fmt.Errorf("KIE_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.KieQualityModel == c.KieFastModel {
		return fmt.Errorf("KIE_QUALITY_MODEL and KIE_FAST_MODEL must differ")
	}
	return nil
}

// ServerKey is the key used for server-side Supabase calls. The service role
// key bypasses row level security; without it we fall back to the
// publishable key and rely on explicit user_id filters.
func (c *Config) ServerKey() string {
	if c.SupabaseServiceRoleKey != "" {
		return c.SupabaseServiceRoleKey
	}
	return c.SupabasePublishableKey
}

// CallbackURL is the webhook KIE calls when a generation task finishes.
func (c *Config) CallbackURL() string {
	u := strings.TrimSuffix(c.BaseURL, "/") + "/api/kie/veo/callback"
	if c.KieCallbackToken != "" {
		u += "?" + url.Values{"token": {c.KieCallbackToken}}.Encode()
	}
	return u
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
