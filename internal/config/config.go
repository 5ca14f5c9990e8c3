// internal/config/config.go
package config

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

// MaxLoanDays is the longest loan period a borrow may ask for.
const MaxLoanDays = 365

// Config holds everything the web process and the setup command need.
type Config struct {
	DB DBConfig

	Port           string
	SecretKey      []byte
	LoanDays       int
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	OTLPEndpoint string
	ServiceName  string
}

// DBConfig describes the storage connection.
type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	URL      string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env file: %v", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, exists := lookup(key); exists && value != "" {
			return value
		}
		return defaultValue
	}

	// Environments written for the MySQL-only deployment use MYSQL_* names.
	legacy := map[string]string{
		"DB_HOST":     "MYSQL_HOST",
		"DB_PORT":     "MYSQL_PORT",
		"DB_USER":     "MYSQL_USER",
		"DB_PASSWORD": "MYSQL_PASSWORD",
		"DB_NAME":     "MYSQL_DATABASE",
	}
	defaultDriver := DriverPostgres
	for _, name := range legacy {
		if get(name, "") != "" {
			defaultDriver = DriverMySQL
			break
		}
	}

	driver := get("DB_DRIVER", defaultDriver)
	var defaultPort, defaultUser string
	switch driver {
	case DriverPostgres:
		defaultPort, defaultUser = "5432", "postgres"
	case DriverMySQL:
		defaultPort, defaultUser = "3306", "root"
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	dbGet := func(key, defaultValue string) string {
		if driver == DriverMySQL {
			defaultValue = get(legacy[key], defaultValue)
		}
		return get(key, defaultValue)
	}

	cfg := &Config{
		DB: DBConfig{
			Driver:   driver,
			Host:     dbGet("DB_HOST", "localhost"),
			Port:     dbGet("DB_PORT", defaultPort),
			User:     dbGet("DB_USER", defaultUser),
			Password: dbGet("DB_PASSWORD", ""),
			Name:     dbGet("DB_NAME", "library_db"),
			SSLMode:  get("DB_SSLMODE", "disable"),
			URL:      get("DATABASE_URL", ""),
		},
		Port:         get("PORT", "8080"),
		OTLPEndpoint: get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  get("OTEL_SERVICE_NAME", "library-web"),
	}

	var err error
	if cfg.LoanDays, err = strconv.Atoi(get("LOAN_DAYS", "14")); err != nil || cfg.LoanDays <= 0 || cfg.LoanDays > MaxLoanDays {
		return nil, fmt.Errorf("invalid LOAN_DAYS %q", get("LOAN_DAYS", ""))
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "10"), 64); err != nil || cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", get("RATE_LIMIT_RPS", ""))
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "20")); err != nil || cfg.RateLimitBurst < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", get("RATE_LIMIT_BURST", ""))
	}
	// A zero burst never admits a request; only RATE_LIMIT_RPS=0 disables limiting.
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is %v", cfg.RateLimitRPS)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(get("REQUEST_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	if key := get("SECRET_KEY", ""); key != "" {
		cfg.SecretKey = []byte(key)
	} else {
		log.Printf("SECRET_KEY not set, flash messages will not survive a restart")
		cfg.SecretKey = make([]byte, 32)
		if _, err := rand.Read(cfg.SecretKey); err != nil {
			return nil, fmt.Errorf("generate secret key: %w", err)
		}
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
