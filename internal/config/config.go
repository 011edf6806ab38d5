package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Export   ExportConfig   `yaml:"export"`
	AI       AIConfig       `yaml:"ai"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" default:"8080"`
	LogLevel string `yaml:"log_level" default:"info"`
}

type DatabaseConfig struct {
	// Enabled selects Postgres-backed stores; when false everything
	// runs in memory, which is enough for local development.
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"attestor"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend string   `yaml:"backend" default:"local"`
	Local   LocalFS  `yaml:"local"`
	S3      S3Config `yaml:"s3"`
}

type LocalFS struct {
	Path string `yaml:"path" default:"./data/blobs"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region" default:"us-east-1"`
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir" default:"./data/exports"`
}

type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model" default:"gemini-pro"`
}

// Default returns a config suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, LogLevel: "info"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "attestor",
			SSLMode:  "disable",
		},
		Storage: StorageConfig{
			Backend: "local",
			Local:   LocalFS{Path: "./data/blobs"},
			S3:      S3Config{Region: "us-east-1"},
		},
		Export: ExportConfig{OutputDir: "./data/exports"},
		AI:     AIConfig{Model: "gemini-pro"},
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment overrides. A missing path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}
