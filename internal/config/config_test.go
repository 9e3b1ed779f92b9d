package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Port:               "8080",
		SQLiteDBPath:       filepath.Join(dir, "lumen.db"),
		ReceiptsDir:        filepath.Join(dir, "receipts"),
		AMQPExchange:       "lumen",
		AMQPQueue:          "export_transactions",
		ExportBatchSize:    10,
		ExportInterval:     30 * time.Second,
		ExportBackend:      "memory",
		MaxSessionsPerUser: 5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantErr  bool
		errPiece string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:     "non-numeric port",
			mutate:   func(c *Config) { c.Port = "abc" },
			wantErr:  true,
			errPiece: "invalid port 'abc'",
		},
		{
			name:     "port out of range",
			mutate:   func(c *Config) { c.Port = "70000" },
			wantErr:  true,
			errPiece: "must be between 1 and 65535",
		},
		{
			name:     "empty db path",
			mutate:   func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:  true,
			errPiece: "SQLite database path cannot be empty",
		},
		{
			name:     "empty receipts dir",
			mutate:   func(c *Config) { c.ReceiptsDir = "" },
			wantErr:  true,
			errPiece: "receipts directory cannot be empty",
		},
		{
			name:     "bad amqp scheme",
			mutate:   func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			wantErr:  true,
			errPiece: "must be 'amqp' or 'amqps'",
		},
		{
			name: "sheets backend without spreadsheet id",
			mutate: func(c *Config) {
				c.ExportBackend = "sheets"
				c.GoogleSheetName = "Transactions"
			},
			wantErr:  true,
			errPiece: "Google Spreadsheet ID is required",
		},
		{
			name:     "unknown export backend",
			mutate:   func(c *Config) { c.ExportBackend = "csv" },
			wantErr:  true,
			errPiece: "invalid export backend 'csv'",
		},
		{
			name:     "export interval too small",
			mutate:   func(c *Config) { c.ExportInterval = 100 * time.Millisecond },
			wantErr:  true,
			errPiece: "must be at least 1 second",
		},
		{
			name:     "zero sessions",
			mutate:   func(c *Config) { c.MaxSessionsPerUser = 0 },
			wantErr:  true,
			errPiece: "max sessions per user",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errPiece) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.errPiece)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.MaxSessionsPerUser != 5 {
		t.Fatalf("default max sessions = %d", cfg.MaxSessionsPerUser)
	}
	if cfg.ExportBackend != "memory" {
		t.Fatalf("default export backend = %q", cfg.ExportBackend)
	}
}
