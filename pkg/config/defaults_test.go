package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output stdout, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Tracker.Port != 12345 {
		t.Errorf("Expected default tracker port 12345, got %d", cfg.Tracker.Port)
	}
	if cfg.DOUT1.ZeroTimeout != 12*time.Hour {
		t.Errorf("Expected default zero timeout 12h, got %v", cfg.DOUT1.ZeroTimeout)
	}
	if cfg.DOUT1.ActivationDuration != 4000*time.Second {
		t.Errorf("Expected default activation duration 4000s, got %v", cfg.DOUT1.ActivationDuration)
	}
	if cfg.Database.Path == "" {
		t.Error("Expected default database path to be set")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	cfg.Tracker.Port = 9999
	cfg.DOUT1.IOID = 200
	ApplyDefaults(cfg)

	// Level is normalized to uppercase but not replaced
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Tracker.Port != 9999 {
		t.Errorf("Expected tracker port 9999, got %d", cfg.Tracker.Port)
	}
	if cfg.DOUT1.IOID != 200 {
		t.Errorf("Expected dout1 io_id 200, got %d", cfg.DOUT1.IOID)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}
