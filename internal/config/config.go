package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the service consumes.
type Config struct {
	Port          int
	DatabaseDSN   string
	RedisAddr     string
	ModelURL      string
	ModelCacheDir string
	AssetDir      string
	PublicBaseURL string
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		DatabaseDSN:   getEnv("DATABASE_DSN", "host=postgres user=postgres password=postgres dbname=dermascan port=5432 sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		ModelURL:      getEnv("MODEL_URL", "https://storage.googleapis.com/dermascan-mlmodel/ml-model/model.onnx"),
		ModelCacheDir: getEnv("MODEL_CACHE_DIR", filepath.Join(".", "model-cache")),
		AssetDir:      getEnv("ASSET_DIR", filepath.Join(".", "assets")),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
