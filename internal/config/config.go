package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Voice platform webhook verification. The signature check only runs
	// when Env is "production"; other environments accept unsigned payloads.
	VoiceWebhookSecret string

	// Staff API authentication
	StaffJWTSecret string

	// SMS provider (Twilio)
	SMSProvider         string
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	SMSRetryMaxAttempts int

	// Email provider selection: "sendgrid", "ses" or "" (email channel off)
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string

	// External booking platform
	MatchiBaseURL string

	// Outbound collaborator calls (SMS, email, booking platform)
	ProviderTimeout time.Duration

	// Club profile cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	ClubCacheTTL  time.Duration

	// Staff dashboard browser clients
	CORSAllowedOrigins []string

	// Public webhook rate limiting, per client IP
	WebhookRatePerSec float64
	WebhookBurst      int

	// Pending-notification sweep interval (notify-worker)
	NotifySweepInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		VoiceWebhookSecret: getEnv("VOICE_WEBHOOK_SECRET", ""),

		StaffJWTSecret: getEnv("STAFF_JWT_SECRET", ""),

		SMSProvider:         strings.ToLower(strings.TrimSpace(getEnv("SMS_PROVIDER", "auto"))),
		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		SMSRetryMaxAttempts: getEnvAsInt("SMS_RETRY_MAX_ATTEMPTS", 3),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ClubVoice"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "ClubVoice"),
		AWSRegion:         getEnv("AWS_REGION", "eu-north-1"),

		MatchiBaseURL: getEnv("MATCHI_BASE_URL", "https://www.matchi.se"),

		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		ClubCacheTTL:  getEnvAsDuration("CLUB_CACHE_TTL", 5*time.Minute),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		WebhookRatePerSec: getEnvAsFloat("WEBHOOK_RATE_PER_SEC", 25),
		WebhookBurst:      getEnvAsInt("WEBHOOK_BURST", 50),

		NotifySweepInterval: getEnvAsDuration("NOTIFY_SWEEP_INTERVAL", time.Minute),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
