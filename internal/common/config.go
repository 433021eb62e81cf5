package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	PDF      PDFConfig
	Server   ServerConfig
}

// DatabaseConfig holds canonical store configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite | memory
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// PipelineConfig holds batch pipeline sizing
type PipelineConfig struct {
	BatchSize    int
	ChunkSize    int
	MinWorkers   int
	WriteWorkers int
}

// PDFConfig holds PDF text extraction configuration
type PDFConfig struct {
	Pdftotext string // fallback binary; empty disables the fallback
}

// ServerConfig holds the progress/metrics listener configuration
type ServerConfig struct {
	Addr        string
	WatchDir    string
	WatchOutDir string
	Debounce    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Pipeline: PipelineConfig{
			BatchSize:    getEnvAsInt("PIPELINE_BATCH_SIZE", 500),
			ChunkSize:    getEnvAsInt("PIPELINE_CHUNK_SIZE", 10_000),
			MinWorkers:   getEnvAsInt("PIPELINE_MIN_WORKERS", 4),
			WriteWorkers: getEnvAsInt("PIPELINE_WRITE_WORKERS", 4),
		},
		PDF: PDFConfig{
			Pdftotext: getEnv("PDFTOTEXT_BIN", ""),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8081"),
			WatchDir:    getEnv("WATCH_DIR", ""),
			WatchOutDir: getEnv("WATCH_OUT_DIR", ""),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres driver", ErrInvalidInput)
		}
	case "sqlite", "memory":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be one of postgres, sqlite, memory", ErrInvalidInput)
	}
	if c.Pipeline.BatchSize <= 0 || c.Pipeline.ChunkSize <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_BATCH_SIZE and PIPELINE_CHUNK_SIZE must be positive", ErrInvalidInput)
	}
	if c.Pipeline.WriteWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WRITE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
