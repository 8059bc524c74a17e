// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "ORGCHART_CONFIG"

// DefaultPath is read when EnvPath is unset.
const DefaultPath = "config/orgchart.yaml"

// Config struct for YAML configuration
type Config struct {
	GRPCPort       int           `yaml:"GRPC_PORT"`
	HTTPPort       int           `yaml:"HTTP_PORT"`
	DBHost         string        `yaml:"DB_HOST"`
	DBPort         int           `yaml:"DB_PORT"`
	DBUser         string        `yaml:"DB_USER"`
	DBPassword     string        `yaml:"DB_PASSWORD"`
	DBName         string        `yaml:"DB_NAME"`
	DBSSLMode      string        `yaml:"DB_SSLMODE"`
	DBConnectRetry time.Duration `yaml:"DB_CONNECT_RETRY"`
	KafkaBrokers   []string      `yaml:"KAFKA_BROKERS"`
	Topic          string        `yaml:"TOPIC"`
	JWTSecret      string        `yaml:"JWT_SECRET"`
	HealthInterval time.Duration `yaml:"HEALTH_INTERVAL"`
	Log            LogConfig     `yaml:"LOG"`
}

// LogConfig controls the zap logger and its optional rotating file output.
type LogConfig struct {
	Level      string `yaml:"LEVEL"`
	Format     string `yaml:"FORMAT"`
	Output     string `yaml:"OUTPUT"`
	Filename   string `yaml:"FILENAME"`
	MaxSize    int    `yaml:"MAX_SIZE"`
	MaxBackups int    `yaml:"MAX_BACKUPS"`
	MaxAge     int    `yaml:"MAX_AGE"`
	Compress   bool   `yaml:"COMPRESS"`
	GormLevel  string `yaml:"GORM_LEVEL"`
}

// Path returns the configuration file location.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(file)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.DBConnectRetry == 0 {
		c.DBConnectRetry = 30 * time.Second
	}
	if c.Topic == "" {
		c.Topic = "departments"
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "console"
	}
	if c.Log.GormLevel == "" {
		c.Log.GormLevel = "warn"
	}
}

func (c *Config) validate() error {
	switch {
	case c.DBHost == "":
		return fmt.Errorf("config: DB_HOST is required")
	case c.DBName == "":
		return fmt.Errorf("config: DB_NAME is required")
	case c.JWTSecret == "":
		return fmt.Errorf("config: JWT_SECRET is required")
	case len(c.KafkaBrokers) == 0:
		return fmt.Errorf("config: KAFKA_BROKERS is required")
	case c.Log.Output != "console" && c.Log.Filename == "":
		return fmt.Errorf("config: LOG.FILENAME is required for %s output", c.Log.Output)
	}
	return nil
}
