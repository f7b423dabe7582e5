package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	OAuth    OAuthConfig
}

type AppConfig struct {
	Port               string `validate:"required,numeric"`
	Environment        string `validate:"required,oneof=development production test"`
	LogFilePath        string `validate:"required"`
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	StoreDriver        string `validate:"required,oneof=postgres memory"` // "postgres" or "memory"
	TokenStore         string `validate:"required,oneof=redis memory"`    // "redis" or "memory"
	TokenKey           string `validate:"required"`
	CheckAuthOnStart   bool
	AuthRatePerMinute  int `validate:"gte=0"` // sign-in/sign-out requests per minute, 0 disables
}

type DatabaseConfig struct {
	Connection string `validate:"required_if=Driver postgres"`
	Driver     string
}

type OAuthConfig struct {
	ClientID     string   `validate:"required"`
	ClientSecret string   `validate:"required"`
	CallbackHost string   `validate:"required"`
	Scopes       []string `validate:"min=1"`
	AuthURL      string   `validate:"omitempty,url"`
	TokenURL     string   `validate:"omitempty,url"`
	UserInfoURL  string   `validate:"required,url"`
	RevokeURL    string   `validate:"omitempty,url"`

	// SignInTimeoutSeconds bounds the wait for the browser callback; 0 waits
	// until the caller's context ends.
	SignInTimeoutSeconds int `validate:"gte=0"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	storeDriver := getEnv("STORE_DRIVER", "postgres")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "4317"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/session.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			StoreDriver:        storeDriver,
			TokenStore:         getEnv("TOKEN_STORE", "memory"),
			TokenKey:           getEnv("TOKEN_KEY", "authToken"),
			CheckAuthOnStart:   getEnvAsBool("CHECK_AUTH_ON_START", true),
			AuthRatePerMinute:  getEnvAsInt("AUTH_RATE_PER_MINUTE", 10),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Driver:     storeDriver,
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			CallbackHost: getEnv("OAUTH_CALLBACK_HOST", "127.0.0.1"),
			Scopes: getEnvAsList("OAUTH_SCOPES", []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			}),
			AuthURL:     getEnv("OAUTH_AUTH_URL", ""),
			TokenURL:    getEnv("OAUTH_TOKEN_URL", ""),
			UserInfoURL: getEnv("OAUTH_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo"),
			RevokeURL:   getEnv("OAUTH_REVOKE_URL", "https://oauth2.googleapis.com/revoke"),

			SignInTimeoutSeconds: getEnvAsInt("OAUTH_SIGNIN_TIMEOUT_SECONDS", 300),
		},
	}
}

// Validate checks the loaded values; callers decide whether to abort.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvAsList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
