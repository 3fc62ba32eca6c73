package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Refresh  RefreshConfig
	Auth     AuthConfig
	Provider ProviderConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds PostgreSQL connection settings. The URL is required
// only when storage runs in postgres mode.
type DatabaseConfig struct {
	URL           string
	MigrationsDir string
}

// StorageConfig selects where artifacts and raw activity logs live.
// In "postgres" mode artifacts are cached in the database and raw logs are
// deleted after processing; in "filesystem" mode everything stays on disk.
type StorageConfig struct {
	Mode        string
	DataDir     string
	ArtifactDir string
}

// RefreshConfig controls the refresh lockout policy and the worker pool.
type RefreshConfig struct {
	SummaryMinPeriod  time.Duration
	DetailedMinPeriod time.Duration
	RecordHorizon     time.Duration
	Workers           int
}

// AuthConfig holds session signing and admin credentials.
type AuthConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	AdminPasswordHash string
}

// ProviderConfig holds the upstream activity provider OAuth application
// credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	StorageModePostgres   = "postgres"
	StorageModeFilesystem = "filesystem"

	defaultDataDir     = "data"
	defaultArtifactDir = "artifacts"

	defaultSummaryMinPeriod  = 24 * time.Hour
	defaultDetailedMinPeriod = 7 * 24 * time.Hour
	defaultRecordHorizon     = 30 * 24 * time.Hour
	defaultWorkers           = 2

	defaultSessionTTL = 24 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Storage: StorageConfig{
			Mode:        getEnv("STORAGE_MODE", StorageModeFilesystem),
			DataDir:     getEnv("DATA_DIR", defaultDataDir),
			ArtifactDir: getEnv("ARTIFACT_DIR", defaultArtifactDir),
		},
		Refresh: RefreshConfig{
			SummaryMinPeriod:  defaultSummaryMinPeriod,
			DetailedMinPeriod: defaultDetailedMinPeriod,
			RecordHorizon:     defaultRecordHorizon,
			Workers:           defaultWorkers,
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			SessionTTL:        defaultSessionTTL,
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Provider: ProviderConfig{
			ClientID:     os.Getenv("PROVIDER_CLIENT_ID"),
			ClientSecret: os.Getenv("PROVIDER_CLIENT_SECRET"),
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	switch cfg.Storage.Mode {
	case StorageModePostgres:
		// Cloud SQL deployments set INSTANCE_CONNECTION_NAME instead of a URL;
		// the cloudsql package resolves the connection string at startup.
		if cfg.Database.URL == "" && os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
			return Config{}, fmt.Errorf("DATABASE_URL or INSTANCE_CONNECTION_NAME is required when STORAGE_MODE is 'postgres'")
		}
	case StorageModeFilesystem:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE: must be 'postgres' or 'filesystem'")
	}

	if v := os.Getenv("SUMMARY_REFRESH_PERIOD_HOURS"); v != "" {
		d, err := parseHours(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SUMMARY_REFRESH_PERIOD_HOURS: %w", err)
		}
		cfg.Refresh.SummaryMinPeriod = d
	}

	if v := os.Getenv("DETAILED_REFRESH_PERIOD_HOURS"); v != "" {
		d, err := parseHours(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DETAILED_REFRESH_PERIOD_HOURS: %w", err)
		}
		cfg.Refresh.DetailedMinPeriod = d
	}

	if v := os.Getenv("REFRESH_RECORD_HORIZON_HOURS"); v != "" {
		d, err := parseHours(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REFRESH_RECORD_HORIZON_HOURS: %w", err)
		}
		cfg.Refresh.RecordHorizon = d
	}

	if v := os.Getenv("REFRESH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid REFRESH_WORKERS: must be a positive integer")
		}
		cfg.Refresh.Workers = n
	}

	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		d, err := parseHours(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSION_TTL_HOURS: %w", err)
		}
		cfg.Auth.SessionTTL = d
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseHours(raw string) (time.Duration, error) {
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(hours) * time.Hour, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
