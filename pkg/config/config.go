package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresURL             string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	JWTTTL                  time.Duration
	ShutdownTimeout         time.Duration
	MetricsEnabled          bool
	// CommentRefetchOnMiss reloads a post's comments when a mutation
	// targets a comment missing from the cached forest.
	CommentRefetchOnMiss bool
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresURL:             getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "inkwell"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTTTL:                  getDurationEnv("JWT_TTL", 72*time.Hour),
		ShutdownTimeout:         getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:          getBoolEnv("METRICS_ENABLED", true),
		CommentRefetchOnMiss:    getBoolEnv("COMMENT_REFETCH_ON_MISS", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_CONN_STR is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Env == "production" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

// FirebaseEnabled reports whether federated login is configured
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsPath != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
