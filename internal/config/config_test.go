package config

import (
	"os"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout %v, got %v", defaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Storage.Mode != StorageModeFilesystem {
		t.Errorf("expected default storage mode %q, got %q", StorageModeFilesystem, cfg.Storage.Mode)
	}
	if cfg.Refresh.SummaryMinPeriod != defaultSummaryMinPeriod {
		t.Errorf("expected default summary period %v, got %v", defaultSummaryMinPeriod, cfg.Refresh.SummaryMinPeriod)
	}
	if cfg.Refresh.DetailedMinPeriod != defaultDetailedMinPeriod {
		t.Errorf("expected default detailed period %v, got %v", defaultDetailedMinPeriod, cfg.Refresh.DetailedMinPeriod)
	}
	if cfg.Refresh.Workers != defaultWorkers {
		t.Errorf("expected default worker count %d, got %d", defaultWorkers, cfg.Refresh.Workers)
	}
}

func TestLoadStorageMode(t *testing.T) {
	t.Run("postgres requires database url", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("STORAGE_MODE", StorageModePostgres)

		if _, err := Load(); err == nil {
			t.Fatal("expected error when STORAGE_MODE=postgres without DATABASE_URL")
		}
	})

	t.Run("postgres with database url", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("STORAGE_MODE", StorageModePostgres)
		t.Setenv("DATABASE_URL", "postgres://localhost/stridestats")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if cfg.Storage.Mode != StorageModePostgres {
			t.Errorf("expected storage mode %q, got %q", StorageModePostgres, cfg.Storage.Mode)
		}
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("STORAGE_MODE", "s3")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown STORAGE_MODE")
		}
	})
}

func TestLoadRefreshOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SUMMARY_REFRESH_PERIOD_HOURS", "12")
	t.Setenv("DETAILED_REFRESH_PERIOD_HOURS", "72")
	t.Setenv("REFRESH_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Refresh.SummaryMinPeriod != 12*time.Hour {
		t.Errorf("expected summary period %v, got %v", 12*time.Hour, cfg.Refresh.SummaryMinPeriod)
	}
	if cfg.Refresh.DetailedMinPeriod != 72*time.Hour {
		t.Errorf("expected detailed period %v, got %v", 72*time.Hour, cfg.Refresh.DetailedMinPeriod)
	}
	if cfg.Refresh.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Refresh.Workers)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                     "9090",
		"SERVER_READ_TIMEOUT_SECONDS":     "30",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "45",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "15",
		"LOG_LEVEL":                       "debug",
		"LOG_FORMAT":                      "text",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != overrides["SERVER_PORT"] {
		t.Errorf("expected overridden port %q, got %q", overrides["SERVER_PORT"], cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("expected write timeout %v, got %v", 45*time.Second, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown timeout %v, got %v", 15*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Logging.Format != overrides["LOG_FORMAT"] {
		t.Errorf("expected log format %q, got %q", overrides["LOG_FORMAT"], cfg.Logging.Format)
	}
}

func TestLoadPartialOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected overridden read timeout %v, got %v", 5*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":     "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "abc",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "3.5",
		"LOG_LEVEL":                       "verbose",
		"LOG_FORMAT":                      "xml",
		"SUMMARY_REFRESH_PERIOD_HOURS":    "-12",
		"DETAILED_REFRESH_PERIOD_HOURS":   "soon",
		"REFRESH_WORKERS":                 "0",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParseSecondsRejectsInvalidInput(t *testing.T) {
	cases := []string{"-1", "abc"}

	for _, input := range cases {
		if _, err := parseSeconds(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestLoadDoesNotPersistEnvBetweenRuns(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Unsetenv("SERVER_READ_TIMEOUT_SECONDS"); err != nil {
		t.Fatalf("failed to unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout after reset, got %v", cfg.Server.ReadTimeout)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_URL",
		"INSTANCE_CONNECTION_NAME",
		"STORAGE_MODE",
		"DATA_DIR",
		"ARTIFACT_DIR",
		"SUMMARY_REFRESH_PERIOD_HOURS",
		"DETAILED_REFRESH_PERIOD_HOURS",
		"REFRESH_RECORD_HORIZON_HOURS",
		"REFRESH_WORKERS",
		"SESSION_TTL_HOURS",
		"JWT_SECRET",
		"ADMIN_PASSWORD_HASH",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
