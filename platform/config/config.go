// Package config loads settings from the environment, with a .env file
// for local development. Each consumer depends on a narrow getter
// interface rather than the full Config.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"os"
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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MetaConfig provides settings for the WhatsApp Cloud API integration.
type MetaConfig interface {
	GetMetaVerifyToken() string
	GetMetaAccessToken() string
	GetMetaPhoneNumberID() string
	GetMetaGraphBaseURL() string
}

// AutomationConfig provides settings for the chat-automation webhook.
type AutomationConfig interface {
	GetAutomationWebhookSecret() string
}

// AIConfig provides settings for the AI responder capability.
type AIConfig interface {
	GetAIResponderURL() string
	GetAIResponderAPIKey() string
	IsAIResponderEnabled() bool
}

// TelephonyConfig provides settings for the click-to-call platform.
type TelephonyConfig interface {
	GetTelephonyBaseURL() string
	GetTelephonyUsername() string
	GetTelephonyPassword() string
	GetTelephonyCampaignID() int64
	IsTelephonyEnabled() bool
}

// SchedulerConfig provides settings for the asynq reply queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketChatAttachments() string
	IsMinIOEnabled() bool
}

// SourcingConfig provides the location of the source-matching rule file.
type SourcingConfig interface {
	GetSourceRulesFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	MetaVerifyToken            string
	MetaAccessToken            string
	MetaPhoneNumberID          string
	MetaGraphBaseURL           string
	AutomationWebhookSecret    string
	AIResponderURL             string
	AIResponderAPIKey          string
	TelephonyBaseURL           string
	TelephonyUsername          string
	TelephonyPassword          string
	TelephonyCampaignID        int64
	SourceRulesFile            string
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOMaxFileSize           int64
	MinioBucketChatAttachments string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MetaConfig implementation
func (c *Config) GetMetaVerifyToken() string   { return c.MetaVerifyToken }
func (c *Config) GetMetaAccessToken() string   { return c.MetaAccessToken }
func (c *Config) GetMetaPhoneNumberID() string { return c.MetaPhoneNumberID }
func (c *Config) GetMetaGraphBaseURL() string  { return c.MetaGraphBaseURL }

// AutomationConfig implementation
func (c *Config) GetAutomationWebhookSecret() string { return c.AutomationWebhookSecret }

// AIConfig implementation
func (c *Config) GetAIResponderURL() string    { return c.AIResponderURL }
func (c *Config) GetAIResponderAPIKey() string { return c.AIResponderAPIKey }
func (c *Config) IsAIResponderEnabled() bool   { return c.AIResponderURL != "" }

// TelephonyConfig implementation
func (c *Config) GetTelephonyBaseURL() string     { return c.TelephonyBaseURL }
func (c *Config) GetTelephonyUsername() string    { return c.TelephonyUsername }
func (c *Config) GetTelephonyPassword() string    { return c.TelephonyPassword }
func (c *Config) GetTelephonyCampaignID() int64   { return c.TelephonyCampaignID }
func (c *Config) IsTelephonyEnabled() bool        { return c.TelephonyBaseURL != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketChatAttachments() string {
	return c.MinioBucketChatAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SourcingConfig implementation
func (c *Config) GetSourceRulesFile() string { return c.SourceRulesFile }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		MetaVerifyToken:            getEnv("META_VERIFY_TOKEN", ""),
		MetaAccessToken:            getEnv("META_ACCESS_TOKEN", ""),
		MetaPhoneNumberID:          getEnv("META_PHONE_NUMBER_ID", ""),
		MetaGraphBaseURL:           strings.TrimRight(getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com/v19.0"), "/"),
		AutomationWebhookSecret:    getEnv("AUTOMATION_WEBHOOK_SECRET", ""),
		AIResponderURL:             getEnv("AI_RESPONDER_URL", ""),
		AIResponderAPIKey:          getEnv("AI_RESPONDER_API_KEY", ""),
		TelephonyBaseURL:           strings.TrimRight(getEnv("TELEPHONY_BASE_URL", ""), "/"),
		TelephonyUsername:          getEnv("TELEPHONY_USERNAME", ""),
		TelephonyPassword:          getEnv("TELEPHONY_PASSWORD", ""),
		SourceRulesFile:            getEnv("SOURCE_RULES_FILE", ""),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:           mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketChatAttachments: getEnv("MINIO_BUCKET_CHAT_ATTACHMENTS", "chat-attachments"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.MetaVerifyToken == "" {
		return nil, fmt.Errorf("META_VERIFY_TOKEN is required")
	}
	if cfg.MetaAccessToken == "" || cfg.MetaPhoneNumberID == "" {
		return nil, fmt.Errorf("META_ACCESS_TOKEN and META_PHONE_NUMBER_ID are required")
	}
	if cfg.AutomationWebhookSecret == "" {
		return nil, fmt.Errorf("AUTOMATION_WEBHOOK_SECRET is required")
	}

	// TELEPHONY_CAMPAIGN_ID must be a finite number. An unparseable value is
	// a startup error, never a per-request one.
	if cfg.TelephonyBaseURL != "" {
		campaignID, err := strconv.ParseInt(getEnv("TELEPHONY_CAMPAIGN_ID", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEPHONY_CAMPAIGN_ID must be a valid number when TELEPHONY_BASE_URL is set")
		}
		cfg.TelephonyCampaignID = campaignID

		if cfg.TelephonyUsername == "" || cfg.TelephonyPassword == "" {
			return nil, fmt.Errorf("TELEPHONY_USERNAME and TELEPHONY_PASSWORD are required when TELEPHONY_BASE_URL is set")
		}
	}
	// Wildcard origins and credentials are mutually exclusive in CORS.
	if cfg.CORSAllowAll {
		cfg.CORSAllowCreds = false
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
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
