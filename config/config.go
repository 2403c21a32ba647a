package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string
	LogLevel   string

	// Gemini configuration
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration

	// Storage configuration
	StorageBackend string
	SQLitePath     string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Photo archive, disabled when S3Bucket is empty
	S3Bucket  string
	AWSRegion string

	// Conversions allowed per client per minute on the JSON API, 0 disables the limit
	ConvertRateLimit int

	// Origins allowed to call the JSON API, empty means the dev defaults
	AllowedOrigins []string

	// Browser sessions idle for longer than this lose their in-memory view state
	SessionIdleTimeout time.Duration
	CookieSecure       bool
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}
	loadCommon(cfg)

	// Sensitive values come from a different source per environment
	switch env {
	case CI:
		loadCISecrets(cfg)
	case Development, Test:
		loadDevSecrets(cfg)
	case Production:
		loadProdSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCommon reads the non-sensitive settings shared by every environment
func loadCommon(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	cfg.GeminiTimeout = getDuration("GEMINI_TIMEOUT", 60*time.Second)

	cfg.StorageBackend = strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory))
	cfg.SQLitePath = getEnv("SQLITE_PATH", "monsieurchef.db")

	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBName = getEnv("DB_NAME", "monsieurchef")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisDB = getInt("REDIS_DB", 0)
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.JWTTTL = getDuration("JWT_TTL", 24*time.Hour)

	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")

	cfg.ConvertRateLimit = getInt("CONVERT_RATE_LIMIT", 10)
	cfg.AllowedOrigins = getList("CORS_ALLOWED_ORIGINS")
	cfg.SessionIdleTimeout = getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour)
	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") == "true"
}

// loadCISecrets reads sensitive values from GitHub Actions secrets exposed as env vars
func loadCISecrets(cfg *Config) {
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
}

// loadDevSecrets prefers Docker secrets and falls back to env vars, so a
// plain `go run` works without a secrets directory.
func loadDevSecrets(cfg *Config) {
	cfg.GeminiAPIKey = secretOrEnv("gemini_api_key", "GEMINI_API_KEY")
	cfg.JWTSecret = secretOrEnv("jwt_secret", "JWT_SECRET")
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD")
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD")
}

// loadProdSecrets loads sensitive values using ONLY Docker secrets
func loadProdSecrets(cfg *Config) {
	cfg.GeminiAPIKey = readSecret("gemini_api_key")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func secretOrEnv(secret, envVar string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// PostgresDSN builds the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
