// Package config provides configuration loading and management for the gallery service.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// godotenv.Load() does not override already-set environment variables,
// preserving OS env > .env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// .env.local holds local overrides and is gitignored
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the gallery service.
type Config struct {
	Env         string // Deployment environment (dev, staging, prod)
	Port        string // HTTP server port
	RoutePrefix string // Prefix for the media and authentication routes, e.g. "/api"
	DatabaseDSN string // PostgreSQL connection string; empty selects in-memory storage
	NATSURL     string // NATS server URL; empty disables event publishing

	// Upload storage
	UploadDir     string // Directory backing /assets when S3 is not configured
	MaxUploadSize int64  // Maximum accepted upload body in bytes
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string

	// Authentication
	JWTSecret     string        // Shared HMAC secret of the identity service
	VerifyURL     string        // Remote token verification endpoint
	VerifyTimeout time.Duration // Per-call timeout for the verification request

	// Content moderation
	ProfanityListPath string // Optional JSON word list overriding the embedded one

	// Observability
	TracingEnabled bool

	// CORS configuration
	CORSAllowedOrigins []string
}

// Default configuration values used when environment variables are not set
const (
	defaultPort          = "8081"
	defaultEnv           = "dev"
	defaultRoutePrefix   = "/api"
	defaultUploadDir     = "uploads"
	defaultS3Region      = "us-east-1"
	defaultMaxUploadSize = 100 << 20
	defaultVerifyTimeout = 3 * time.Second
	defaultCORSOrigin    = "http://localhost:5174"
)

// Load reads environment variables and produces a Config suitable for wiring the service.
// Returns an error if required parameters are missing or invalid.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("GALLERY_ENV", defaultEnv),
		Port:               getEnv("GALLERY_PORT", defaultPort),
		RoutePrefix:        defaultRoutePrefix,
		DatabaseDSN:        os.Getenv("GALLERY_DB_DSN"),
		NATSURL:            os.Getenv("GALLERY_NATS_URL"),
		UploadDir:          getEnv("GALLERY_UPLOAD_DIR", defaultUploadDir),
		MaxUploadSize:      defaultMaxUploadSize,
		S3Endpoint:         os.Getenv("GALLERY_S3_ENDPOINT"),
		S3Region:           getEnv("GALLERY_S3_REGION", defaultS3Region),
		S3Bucket:           os.Getenv("GALLERY_S3_BUCKET"),
		S3AccessKey:        os.Getenv("GALLERY_S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("GALLERY_S3_SECRET_KEY"),
		JWTSecret:          os.Getenv("GALLERY_JWT_SECRET"),
		VerifyURL:          os.Getenv("GALLERY_VERIFY_URL"),
		VerifyTimeout:      defaultVerifyTimeout,
		ProfanityListPath:  os.Getenv("GALLERY_PROFANITY_LIST"),
		TracingEnabled:     parseBool(os.Getenv("GALLERY_TRACING")),
		CORSAllowedOrigins: []string{defaultCORSOrigin},
	}

	// An explicitly empty prefix mounts routes at the root.
	if prefix, exists := os.LookupEnv("GALLERY_ROUTE_PREFIX"); exists {
		cfg.RoutePrefix = normalizePrefix(prefix)
	}

	if v, exists := os.LookupEnv("GALLERY_MAX_UPLOAD_SIZE"); exists {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil || size <= 0 {
			return cfg, fmt.Errorf("GALLERY_MAX_UPLOAD_SIZE must be a positive integer, got %q", v)
		}
		cfg.MaxUploadSize = size
	}

	if v, exists := os.LookupEnv("GALLERY_VERIFY_TIMEOUT"); exists {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("GALLERY_VERIFY_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.VerifyTimeout = d
	}

	if origins, exists := os.LookupEnv("GALLERY_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	// Validate required parameters
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("GALLERY_JWT_SECRET is required")
	}
	if cfg.VerifyURL == "" {
		return cfg, fmt.Errorf("GALLERY_VERIFY_URL is required")
	}

	return cfg, nil
}

// UseS3 reports whether uploads go to an S3-compatible bucket instead of the local directory.
func (c Config) UseS3() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// normalizePrefix returns "" or a path starting with "/" and without a trailing slash.
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
