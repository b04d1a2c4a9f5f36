package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that overlay file-based configuration. Credentials are
// accepted from the environment so config files can be checked in without
// secrets.
const (
	EnvRegistryKey      = "SATCHEL_REGISTRY_KEY"
	EnvRegistryUsername = "SATCHEL_REGISTRY_USERNAME"
	EnvStorageKey       = "SATCHEL_STORAGE_KEY"
	EnvStorageUsername  = "SATCHEL_STORAGE_USERNAME"
)

func (c *Config) applyEnvOverrides() {
	// A local .env is honored when present; absence is not an error.
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv(EnvRegistryKey)); v != "" {
		c.Registry.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRegistryUsername)); v != "" {
		c.Registry.Username = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageKey)); v != "" {
		c.Storage.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageUsername)); v != "" {
		c.Storage.Username = v
	}
}
