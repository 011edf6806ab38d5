package config

import (
	"os"
	"strconv"
)

// LoadFromEnv applies environment overrides on top of the loaded file.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("ATTESTOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if logLevel := os.Getenv("ATTESTOR_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if v := os.Getenv("ATTESTOR_DB_ENABLED"); v != "" {
		cfg.Database.Enabled = v == "true" || v == "1"
	}
	if host := os.Getenv("ATTESTOR_DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("ATTESTOR_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	if user := os.Getenv("ATTESTOR_DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("ATTESTOR_DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("ATTESTOR_DB_NAME"); name != "" {
		cfg.Database.Database = name
	}

	if backend := os.Getenv("ATTESTOR_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if path := os.Getenv("ATTESTOR_STORAGE_PATH"); path != "" {
		cfg.Storage.Local.Path = path
	}
	if bucket := os.Getenv("ATTESTOR_S3_BUCKET"); bucket != "" {
		cfg.Storage.S3.Bucket = bucket
	}
	if endpoint := os.Getenv("ATTESTOR_S3_ENDPOINT"); endpoint != "" {
		cfg.Storage.S3.Endpoint = endpoint
	}
	if key := os.Getenv("ATTESTOR_S3_ACCESS_KEY"); key != "" {
		cfg.Storage.S3.AccessKey = key
	}
	if secret := os.Getenv("ATTESTOR_S3_SECRET_KEY"); secret != "" {
		cfg.Storage.S3.SecretKey = secret
	}

	if dir := os.Getenv("ATTESTOR_EXPORT_DIR"); dir != "" {
		cfg.Export.OutputDir = dir
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
		cfg.AI.Enabled = true
	}
	if model := os.Getenv("ATTESTOR_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
}
