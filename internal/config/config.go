package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	GitHub    GitHubConfig
	CronJob   CronJobConfig
	Trigger   TriggerConfig
	RedisAddr string
}

// GitHubConfig carries OAuth app credentials and API endpoints for the
// hosting API. BaseURL/OAuthBaseURL are overridable so tests can point the
// client at a local server.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	OAuthBaseURL string
	Timeout      time.Duration
}

// CronJobConfig configures the external cron execution service.
type CronJobConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// TriggerConfig configures the report execution webhook.
type TriggerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "reposcribe"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "reposcribe"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		GitHub: GitHubConfig{
			ClientID:     strings.TrimSpace(getenv("GITHUB_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("GITHUB_CLIENT_SECRET", "")),
			BaseURL:      getenv("GITHUB_API_BASE_URL", "https://api.github.com"),
			OAuthBaseURL: getenv("GITHUB_OAUTH_BASE_URL", "https://github.com"),
			Timeout:      getenvDuration("GITHUB_TIMEOUT", 10*time.Second),
		},
		CronJob: CronJobConfig{
			BaseURL: strings.TrimSpace(getenv("CRON_JOB_BASE_URL", "")),
			APIKey:  strings.TrimSpace(getenv("CRON_JOB_API_KEY", "")),
			Timeout: getenvDuration("CRON_JOB_TIMEOUT", 10*time.Second),
		},
		Trigger: TriggerConfig{
			BaseURL: strings.TrimSpace(getenv("TRIGGER_WEBHOOK_URL", "")),
			Timeout: getenvDuration("TRIGGER_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		RedisAddr: strings.TrimSpace(getenv("REDIS_ADDR", "")),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
