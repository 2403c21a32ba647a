package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}

	// Tests run against a fake model
	if cfg.GeminiAPIKey == "" && env != Test {
		errs = append(errs, ValidationError{"GEMINI_API_KEY", sensitiveSource(env, "gemini_api_key")})
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", sensitiveSource(env, "jwt_secret")})
	} else if env == Production && len(cfg.JWTSecret) < 32 {
		errs = append(errs, ValidationError{"JWT_SECRET", "must be at least 32 characters in production"})
	}

	switch cfg.StorageBackend {
	case StorageMemory:
		if env == Production {
			errs = append(errs, ValidationError{"STORAGE_BACKEND", "memory storage is not allowed in production"})
		}
	case StorageRedis:
		if cfg.RedisURL == "" && (cfg.RedisHost == "" || cfg.RedisPort == "") {
			errs = append(errs, ValidationError{"REDIS_URL", "REDIS_URL or REDIS_HOST/REDIS_PORT is required for redis storage"})
		}
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for sqlite storage"})
		}
	case StoragePostgres:
		if cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "" {
			errs = append(errs, ValidationError{"DB_HOST", "DB_HOST, DB_NAME and DB_USER are required for postgres storage"})
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", sensitiveSource(env, "db_password")})
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_BACKEND", fmt.Sprintf("unknown backend %q", cfg.StorageBackend)})
	}

	if cfg.S3Bucket != "" && cfg.AWSRegion == "" {
		errs = append(errs, ValidationError{"AWS_REGION", "is required when S3_BUCKET_NAME is set"})
	}
	if cfg.ConvertRateLimit < 0 {
		errs = append(errs, ValidationError{"CONVERT_RATE_LIMIT", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// sensitiveSource describes where a missing sensitive value is expected to come from
func sensitiveSource(env Environment, secret string) string {
	switch env {
	case CI:
		return "environment variable is required in CI environment"
	case Production:
		return fmt.Sprintf("%s secret is required", secret)
	default:
		return fmt.Sprintf("%s secret or environment variable is required", secret)
	}
}
