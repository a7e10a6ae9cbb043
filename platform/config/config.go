// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetJWTRefreshSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// CookieConfig provides settings for refresh token cookies.
type CookieConfig interface {
	GetRefreshCookieName() string
	GetRefreshCookieDomain() string
	GetRefreshCookiePath() string
	GetRefreshCookieSecure() bool
	GetRefreshCookieSameSite() http.SameSite
	GetRefreshTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetReminderLead() time.Duration
}

// PresenceConfig provides settings for the presence monitor.
type PresenceConfig interface {
	GetPresenceTick() time.Duration
	GetPresenceGrace() time.Duration
	GetPresenceResponseWindow() time.Duration
}

// RetentionConfig provides settings for the retention cleaner.
type RetentionConfig interface {
	GetRetentionInterval() time.Duration
	GetRetentionWindow() time.Duration
}

// LoyaltyBand maps a minimum balance to an accrual multiplier.
type LoyaltyBand struct {
	MinBalance int64
	Multiplier float64
}

// LoyaltyConfig provides the loyalty accrual and redemption settings.
type LoyaltyConfig interface {
	GetLoyaltyBands() []LoyaltyBand
	GetRedeemCentsPer100() int64
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AppBaseURL             string
	EmailEnabled           bool
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	RefreshCookieName      string
	RefreshCookieDomain    string
	RefreshCookiePath      string
	RefreshCookieSecure    bool
	RefreshCookieSameSite  http.SameSite
	WhatsAppURL            string
	WhatsAppKey            string
	WhatsAppDeviceID       string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	ReminderLead           time.Duration
	PresenceTick           time.Duration
	PresenceGrace          time.Duration
	PresenceResponseWindow time.Duration
	RetentionInterval      time.Duration
	RetentionWindow        time.Duration
	LoyaltyBands           []LoyaltyBand
	RedeemCentsPer100      int64
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetJWTRefreshSecret() string       { return c.JWTRefreshSecret }
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

// CookieConfig implementation
func (c *Config) GetRefreshCookieName() string            { return c.RefreshCookieName }
func (c *Config) GetRefreshCookieDomain() string          { return c.RefreshCookieDomain }
func (c *Config) GetRefreshCookiePath() string            { return c.RefreshCookiePath }
func (c *Config) GetRefreshCookieSecure() bool            { return c.RefreshCookieSecure }
func (c *Config) GetRefreshCookieSameSite() http.SameSite { return c.RefreshCookieSameSite }

// GetEnv returns the runtime environment name.
func (c *Config) GetEnv() string { return c.Env }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool      { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string      { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int       { return c.AsynqConcurrency }
func (c *Config) GetReminderLead() time.Duration { return c.ReminderLead }

// PresenceConfig implementation
func (c *Config) GetPresenceTick() time.Duration           { return c.PresenceTick }
func (c *Config) GetPresenceGrace() time.Duration          { return c.PresenceGrace }
func (c *Config) GetPresenceResponseWindow() time.Duration { return c.PresenceResponseWindow }

// RetentionConfig implementation
func (c *Config) GetRetentionInterval() time.Duration { return c.RetentionInterval }
func (c *Config) GetRetentionWindow() time.Duration   { return c.RetentionWindow }

// LoyaltyConfig implementation
func (c *Config) GetLoyaltyBands() []LoyaltyBand { return c.LoyaltyBands }
func (c *Config) GetRedeemCentsPer100() int64    { return c.RedeemCentsPer100 }

// defaultLoyaltyBands are applied when LOYALTY_BANDS is unset or malformed.
var defaultLoyaltyBands = []LoyaltyBand{
	{MinBalance: 0, Multiplier: 1.0},
	{MinBalance: 100, Multiplier: 1.1},
	{MinBalance: 300, Multiplier: 1.2},
	{MinBalance: 600, Multiplier: 1.3},
	{MinBalance: 1000, Multiplier: 1.5},
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	refreshCookieSecure := strings.EqualFold(getEnv("REFRESH_COOKIE_SECURE", ""), "true")
	if getEnv("REFRESH_COOKIE_SECURE", "") == "" {
		refreshCookieSecure = strings.EqualFold(getEnv("APP_ENV", "development"), "production")
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:       getEnv("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:         mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		RefreshTokenTTL:        mustDuration(getEnv("JWT_REFRESH_TTL", "720h")),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:             getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:           emailEnabled && smtpHost != "",
		SMTPHost:               smtpHost,
		SMTPPort:               int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Aluvi Agendamentos"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		RefreshCookieName:      getEnv("REFRESH_COOKIE_NAME", "aluvi_refresh"),
		RefreshCookieDomain:    getEnv("REFRESH_COOKIE_DOMAIN", ""),
		RefreshCookiePath:      getEnv("REFRESH_COOKIE_PATH", "/api/v1/auth"),
		RefreshCookieSecure:    refreshCookieSecure,
		RefreshCookieSameSite:  parseSameSite(getEnv("REFRESH_COOKIE_SAMESITE", "Lax")),
		WhatsAppURL:            getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:            getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID:       getEnv("WHATSAPP_DEVICE_ID", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE_NAME", "agendamentos"),
		AsynqConcurrency:       int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		ReminderLead:           mustDuration(getEnv("REMINDER_LEAD", "1h")),
		PresenceTick:           mustDuration(getEnv("PRESENCE_TICK", "30s")),
		PresenceGrace:          mustDuration(getEnv("PRESENCE_GRACE", "20m")),
		PresenceResponseWindow: mustDuration(getEnv("PRESENCE_RESPONSE_WINDOW", "5m")),
		RetentionInterval:      mustDuration(getEnv("RETENTION_INTERVAL", "24h")),
		RetentionWindow:        mustDuration(getEnv("RETENTION_WINDOW", "48h")),
		LoyaltyBands:           parseLoyaltyBands(getEnv("LOYALTY_BANDS", "")),
		RedeemCentsPer100:      mustInt64(getEnv("LOYALTY_REDEEM_CENTS_PER_100", "1000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.PresenceGrace <= 0 || cfg.PresenceResponseWindow <= 0 {
		return nil, fmt.Errorf("PRESENCE_GRACE and PRESENCE_RESPONSE_WINDOW must be positive durations")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

// parseLoyaltyBands parses "min:multiplier" CSV pairs, e.g.
// "0:1.0,100:1.1,300:1.2,600:1.3,1000:1.5". A band starting at 0 is
// required; malformed input falls back to the defaults.
func parseLoyaltyBands(value string) []LoyaltyBand {
	if strings.TrimSpace(value) == "" {
		return defaultLoyaltyBands
	}

	bands := make([]LoyaltyBand, 0)
	for _, part := range splitCSV(value) {
		pieces := strings.SplitN(part, ":", 2)
		if len(pieces) != 2 {
			return defaultLoyaltyBands
		}
		min, err := strconv.ParseInt(strings.TrimSpace(pieces[0]), 10, 64)
		if err != nil || min < 0 {
			return defaultLoyaltyBands
		}
		mult, err := strconv.ParseFloat(strings.TrimSpace(pieces[1]), 64)
		if err != nil || mult <= 0 {
			return defaultLoyaltyBands
		}
		bands = append(bands, LoyaltyBand{MinBalance: min, Multiplier: mult})
	}

	if len(bands) == 0 {
		return defaultLoyaltyBands
	}

	sort.Slice(bands, func(i, j int) bool { return bands[i].MinBalance < bands[j].MinBalance })
	if bands[0].MinBalance != 0 {
		return defaultLoyaltyBands
	}

	return bands
}
