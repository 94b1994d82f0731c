package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Payment status bases.
const (
	BasisBilling   = "billing"
	BasisRemaining = "remaining"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	DB       DBConfig
	Backend  BackendConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Trips    TripsConfig
	Events   EventsConfig
	Workflow WorkflowConfig
	Desk     DeskConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level  string
	Format string // text, json or pretty
}

type DBConfig struct {
	Driver string // sqlite or postgres
	Path   string
	URL    string
}

type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type PaymentConfig struct {
	StatusBasis string
}

type TripsConfig struct {
	LedgerPath string
}

type EventsConfig struct {
	KafkaBroker string
	KafkaTopic  string
}

type WorkflowConfig struct {
	AbandonRetryInterval time.Duration
	AbandonBatchSize     int
	SuggestionMinChars   int
}

// DeskConfig identifies the driver using the terminal client.
type DeskConfig struct {
	UserID   string
	UserName string
	Location string // "lon,lat"
}

// Load reads an optional .env file and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := getDuration("BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	retry, err := getDuration("ABANDON_RETRY_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	minChars, err := getInt("SUGGESTION_MIN_CHARS", 1)
	if err != nil {
		return nil, err
	}
	batch, err := getInt("ABANDON_BATCH_SIZE", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:   getEnv("DB_PATH", "./data/driverdesk.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", "http://localhost:5000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: timeout,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Payment: PaymentConfig{
			StatusBasis: strings.ToLower(getEnv("PAYMENT_STATUS_BASIS", BasisBilling)),
		},
		Trips: TripsConfig{
			LedgerPath: getEnv("TRIPLOG_PATH", "./data/trips.duckdb"),
		},
		Events: EventsConfig{
			KafkaBroker: getEnv("KAFKA_BROKER", ""),
			KafkaTopic:  getEnv("KAFKA_TOPIC", "driverdesk.deliveries"),
		},
		Workflow: WorkflowConfig{
			AbandonRetryInterval: retry,
			AbandonBatchSize:     batch,
			SuggestionMinChars:   minChars,
		},
		Desk: DeskConfig{
			UserID:   getEnv("DESK_USER_ID", ""),
			UserName: getEnv("DESK_USER_NAME", ""),
			Location: getEnv("DESK_LOCATION", ""),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is postgres")
	}
	switch c.Payment.StatusBasis {
	case BasisBilling, BasisRemaining:
	default:
		return fmt.Errorf("PAYMENT_STATUS_BASIS must be billing or remaining, got %q", c.Payment.StatusBasis)
	}
	switch c.Log.Format {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("LOG_FORMAT must be text, json or pretty, got %q", c.Log.Format)
	}
	if c.Workflow.SuggestionMinChars < 1 {
		return fmt.Errorf("SUGGESTION_MIN_CHARS must be at least 1")
	}
	if c.Workflow.AbandonRetryInterval <= 0 {
		return fmt.Errorf("ABANDON_RETRY_INTERVAL must be positive")
	}
	if c.Workflow.AbandonBatchSize < 1 {
		return fmt.Errorf("ABANDON_BATCH_SIZE must be at least 1")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
