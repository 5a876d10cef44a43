package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// A Config holds the runtime settings, read from the environment and an optional .env file.
type Config struct {
	// Directory holding the database and the file system storage when they are relative.
	DataPath     string `env:"SECUREVISION_DATA_PATH"`
	DatabasePath string `env:"SECUREVISION_DATABASE_PATH" envDefault:"securevision.db"`
	IndexCodec   string `env:"SECUREVISION_INDEX_CODEC"   envDefault:"json"`

	Storage     string `env:"SECUREVISION_STORAGE"      envDefault:"file_system"`
	StoragePath string `env:"SECUREVISION_STORAGE_PATH" envDefault:"storage"`
	Swift       Swift

	Algorithm string `env:"SECUREVISION_FINGERPRINT" envDefault:"sha256"`
	Issuer    string `env:"SECUREVISION_ISSUER"      envDefault:"SecureVision Issuer"`
	Author    string `env:"SECUREVISION_AUTHOR"      envDefault:"SecureVision User"`

	AuditSpecification string `env:"SECUREVISION_AUDIT" envDefault:"@every 1h"`
	Token              string `env:"SECUREVISION_TOKEN"`
	Binding            string `env:"SECUREVISION_BINDING" envDefault:"0.0.0.0"`
	Port               string `env:"SECUREVISION_PORT"    envDefault:"5000"`
}

// Swift holds the OpenStack Swift connection settings.
type Swift struct {
	AuthURL  string `env:"SWIFT_AUTH_URL"`
	Username string `env:"SWIFT_USERNAME"`
	APIKey   string `env:"SWIFT_API_KEY"`
	Tenant   string `env:"SWIFT_TENANT"`
	Domain   string `env:"SWIFT_DOMAIN" envDefault:"Default"`
	Region   string `env:"SWIFT_REGION"`
	// Prefix of the containers used as storage areas.
	Prefix string `env:"SWIFT_CONTAINER_PREFIX" envDefault:"securevision_"`
}

// Load reads the configuration. Variables already set in the environment take precedence over the .env file.
func Load(dotenv ...string) (*Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "could not load .env")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "could not parse environment")
	}
	return cfg, nil
}

// Database returns the path of the database.
func (c *Config) Database() string {
	return c.nameWithDataPath(c.DatabasePath)
}

// Workspace returns the root of the file system storage.
func (c *Config) Workspace() string {
	return c.nameWithDataPath(c.StoragePath)
}

func (c *Config) nameWithDataPath(name string) string {
	if c.DataPath == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataPath, name)
}
