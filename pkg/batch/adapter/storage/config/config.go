package config

import (
	"fmt"

	"github.com/tigerroll/vsatsla/pkg/batch/support/util/configbinder"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // "local" or "gcs".
	BucketName      string `yaml:"bucket_name"`      // Default bucket when an operation passes none.
	CredentialsFile string `yaml:"credentials_file"` // Service account key for GCS.
	Endpoint        string `yaml:"endpoint"`         // Alternative GCS endpoint (emulators). Disables authentication.
	BaseDir         string `yaml:"base_dir"`         // Root directory for the local backend.
}

// Lookup decodes the connection configured under name from the raw "storage" configuration map.
func Lookup(all map[string]interface{}, name string) (StorageConfig, error) {
	var cfg StorageConfig
	raw, ok := all[name]
	if !ok {
		return cfg, fmt.Errorf("storage configuration for name '%s' not found", name)
	}
	props, ok := raw.(map[string]interface{})
	if !ok {
		return cfg, fmt.Errorf("invalid storage configuration format for '%s': expected a map but got %T", name, raw)
	}
	if err := configbinder.BindProperties(props, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return cfg, nil
}
