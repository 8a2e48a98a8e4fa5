package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	MinIO      MinIOConfig
	JWT        JWTConfig
	Vision     VisionConfig
	Escalation EscalationConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

type VisionConfig struct {
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
}

type JWTConfig struct {
	Secret     string
	ExpireHour int
}

type EscalationConfig struct {
	ThresholdDays int
	IntervalHours int
}

func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "civicfix"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("MINIO_BUCKET", "complaint-images"),
			UseSSL:          getEnvBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHour: getEnvInt("JWT_EXPIRE_HOUR", 24),
		},
		Vision: VisionConfig{
			APIKey:         os.Getenv("VISION_API_KEY"),
			Model:          getEnv("VISION_MODEL", "gemini-1.5-flash"),
			Endpoint:       getEnv("VISION_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			TimeoutSeconds: getEnvInt("VISION_TIMEOUT_SECONDS", 30),
		},
		Escalation: EscalationConfig{
			ThresholdDays: getEnvInt("ESCALATION_THRESHOLD_DAYS", 7),
			IntervalHours: getEnvInt("ESCALATION_INTERVAL_HOURS", 24),
		},
	}

	// A missing vision credential is a deployment mistake, not something to
	// discover on the first complaint submission.
	if cfg.Vision.APIKey == "" {
		log.Fatal("VISION_API_KEY is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
