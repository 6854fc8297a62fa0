package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// Config holds runtime configuration values for the promptpress server and tools.
type Config struct {
	Store         StoreConfig
	PostsDir      string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	LLMEndpoint   string
	LLMAPIKey     string
	LLMModel      string
	Author        AuthorConfig
	RateLimit     RateLimitConfig
	ShutdownGrace time.Duration
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend        string
	TableName      string
	AccessKey      string
	SecretKey      string
	Region         string
	Endpoint       string
	SQLitePath     string
	ScanAllPages   bool
	ExactTypeMatch bool
}

// AuthorConfig is stamped on posts generated from prompts.
type AuthorConfig struct {
	Name    string
	Picture string
}

// RateLimitConfig configures the HTTP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

const (
	defaultBackend       = BackendDynamoDB
	defaultRegion        = "us-east-1"
	defaultSQLitePath    = "./data/promptpress.db"
	defaultPostsDir      = "_posts"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultAuthorName    = "promptpress"
	defaultRateLimitRPS  = 5.0
	defaultRateBurst     = 20
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", defaultBackend)),
			TableName:  os.Getenv("DDB_TABLE_NAME"),
			AccessKey:  os.Getenv("DDB_ACCESS_KEY"),
			SecretKey:  os.Getenv("DDB_SECRET_KEY"),
			Region:     getEnv("REGION", defaultRegion),
			Endpoint:   os.Getenv("DDB_ENDPOINT"),
			SQLitePath: getEnv("SQLITE_PATH", defaultSQLitePath),
		},
		PostsDir:    getEnv("POSTS_DIR", defaultPostsDir),
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getEnv("ENV", defaultEnvironment),
		LLMEndpoint: os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMModel:    os.Getenv("LLM_MODEL"),
		Author: AuthorConfig{
			Name:    getEnv("POST_AUTHOR_NAME", defaultAuthorName),
			Picture: os.Getenv("POST_AUTHOR_PICTURE"),
		},
		ShutdownGrace: defaultShutdownGrace,
	}

	switch cfg.Store.Backend {
	case BackendDynamoDB:
		if strings.TrimSpace(cfg.Store.TableName) == "" {
			return nil, eris.New("DDB_TABLE_NAME is required for the dynamodb backend")
		}
	case BackendSQLite:
		if cfg.Store.TableName == "" {
			cfg.Store.TableName = "content"
		}
	default:
		return nil, eris.Errorf("invalid STORE_BACKEND value: %s", cfg.Store.Backend)
	}

	var err error
	if cfg.Store.ScanAllPages, err = getBool("STORE_SCAN_ALL_PAGES"); err != nil {
		return nil, err
	}
	if cfg.Store.ExactTypeMatch, err = getBool("STORE_EXACT_TYPE_MATCH"); err != nil {
		return nil, err
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateLimitRPS, 'f', -1, 64))
	rps, err := strconv.ParseFloat(rpsValue, 64)
	if err != nil || rps <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}
	cfg.RateLimit.RequestsPerSecond = rps

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateBurst))
	burst, err := strconv.Atoi(burstValue)
	if err != nil || burst <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_BURST value: %s", burstValue)
	}
	cfg.RateLimit.Burst = burst

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return false, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}
