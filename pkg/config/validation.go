package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid or inconsistent values.
//
// Struct-level constraints are enforced through validator tags; component
// sections that carry their own Validate methods are checked afterwards so
// errors name the offending section.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	if err := cfg.DOUT1.Validate(); err != nil {
		return fmt.Errorf("dout1: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return nil
}
