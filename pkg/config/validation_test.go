package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidTrackerPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tracker.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for out-of-range tracker port")
	}
	if !strings.Contains(err.Error(), "tracker") {
		t.Errorf("Expected error to name the tracker section, got: %v", err)
	}
}

func TestValidate_NegativeZeroTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.DOUT1.ZeroTimeout = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative zero_timeout")
	}
}

func TestValidate_MissingShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ShutdownTimeout = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for zero shutdown_timeout")
	}
}
