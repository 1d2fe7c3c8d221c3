package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Lifecycle LifecycleConfig
	Registry  RegistryConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type UploadConfig struct {
	TempDir     string
	StorageRoot string
	MaxFileSize int64 // bytes
	WorkerCount int
}

type LifecycleConfig struct {
	GracePeriod time.Duration // soft-delete grace window before purge
	TempMaxAge  time.Duration // age after which abandoned temp dirs are reaped
	SweepSpec   string        // cron spec (with seconds field)
}

type RegistryConfig struct {
	Backend     string // "memory" or "postgres"
	DSN         string
	AutoMigrate bool
}

type StorageConfig struct {
	Backend  string // "local" or "s3"
	S3Bucket string
	S3Region string
}

func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnv("SERVER_PORT", "3000"),
		},
		Upload: UploadConfig{
			TempDir:     getEnv("UPLOAD_TEMP_DIR", "temp_uploads"),
			StorageRoot: getEnv("UPLOAD_STORAGE_ROOT", "uploads"),
			MaxFileSize: getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024*1024), // 5GB
			WorkerCount: int(getEnvAsInt64("UPLOAD_WORKER_COUNT", 4)),
		},
		Lifecycle: LifecycleConfig{
			GracePeriod: getEnvAsDuration("LIFECYCLE_GRACE_PERIOD", 6*time.Hour),
			TempMaxAge:  getEnvAsDuration("LIFECYCLE_TEMP_MAX_AGE", 24*time.Hour),
			SweepSpec:   getEnv("LIFECYCLE_SWEEP_SPEC", "0 0 * * * *"), // hourly
		},
		Registry: RegistryConfig{
			Backend:     getEnv("REGISTRY_BACKEND", "memory"),
			DSN:         getEnv("REGISTRY_DSN", ""),
			AutoMigrate: getEnv("REGISTRY_AUTO_MIGRATE", "true") == "true",
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "local"),
			S3Bucket: getEnv("STORAGE_S3_BUCKET", ""),
			S3Region: getEnv("STORAGE_S3_REGION", "eu-central-1"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
