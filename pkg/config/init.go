package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sampleConfigHeader is prepended to generated configuration files.
const sampleConfigHeader = `# fridged Configuration File
#
# This file was generated by 'fridged init'. All values shown are the
# defaults; edit what you need and delete the rest.
#
# Every option can be overridden with an environment variable using the
# FRIDGED_ prefix, e.g. FRIDGED_LOGGING_LEVEL=DEBUG or
# FRIDGED_TRACKER_PORT=15000.

`

// InitConfig creates a sample configuration file at the default location.
//
// Returns the path of the created file. Fails if a config file already
// exists unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a sample configuration file at the given path.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	content := append([]byte(sampleConfigHeader), data...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
