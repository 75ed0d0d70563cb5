// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Comment moderation policies.
const (
	CommentPolicyAutoApprove = "auto_approve"
	CommentPolicyHoldBots    = "hold_bots"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OBLOG_DB_PATH" envDefault:"./data/oblog.db"`
	SessionSecret string `env:"OBLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"OBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OBLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OBLOG_ENV" envDefault:"development"`
	LogLevel      string `env:"OBLOG_LOG_LEVEL" envDefault:"info"`
	// SiteURL is the public origin used in sitemap.xml; the request host
	// is used when empty.
	SiteURL string `env:"OBLOG_SITE_URL"`

	// Cache configuration
	RedisURL    string `env:"OBLOG_REDIS_URL"`
	CachePrefix string `env:"OBLOG_CACHE_PREFIX" envDefault:"oblog:"`
	CacheTTL    int    `env:"OBLOG_CACHE_TTL" envDefault:"3600"` // seconds

	// Media storage. Local disk unless an S3 bucket is configured.
	MediaDir    string `env:"OBLOG_MEDIA_DIR" envDefault:"./media"`
	MediaURL    string `env:"OBLOG_MEDIA_URL" envDefault:"/media/"`
	S3Endpoint  string `env:"OBLOG_S3_ENDPOINT"`
	S3Region    string `env:"OBLOG_S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"OBLOG_S3_BUCKET"`
	S3AccessKey string `env:"OBLOG_S3_ACCESS_KEY"`
	S3SecretKey string `env:"OBLOG_S3_SECRET_KEY"`
	S3PublicURL string `env:"OBLOG_S3_PUBLIC_URL"`

	// Social login
	FacebookGraphURL string `env:"OBLOG_FACEBOOK_GRAPH_URL" envDefault:"https://graph.facebook.com"`

	// API rate limiting (requests per second per client IP)
	APIRateLimit float64 `env:"OBLOG_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst int     `env:"OBLOG_API_RATE_BURST" envDefault:"20"`

	CommentPolicy   string `env:"OBLOG_COMMENT_POLICY" envDefault:"auto_approve"`
	ReindexSchedule string `env:"OBLOG_REINDEX_SCHEDULE" envDefault:"@every 15m"`

	// Seeding configuration
	DoSeed bool `env:"OBLOG_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseS3Storage returns true if profile photos go to an S3 bucket.
func (c Config) UseS3Storage() bool {
	return c.S3Bucket != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("OBLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch cfg.CommentPolicy {
	case CommentPolicyAutoApprove, CommentPolicyHoldBots:
	default:
		return nil, fmt.Errorf("OBLOG_COMMENT_POLICY must be %q or %q, got %q",
			CommentPolicyAutoApprove, CommentPolicyHoldBots, cfg.CommentPolicy)
	}

	if cfg.UseS3Storage() && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return nil, fmt.Errorf("OBLOG_S3_ACCESS_KEY and OBLOG_S3_SECRET_KEY are required when OBLOG_S3_BUCKET is set")
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("OBLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
