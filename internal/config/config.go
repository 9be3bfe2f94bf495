package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config - конфигурация сервиса, собирается из окружения.
type Config struct {
	Port        string
	DatabaseURL string
}

// Load читает .env (если есть) и окружение.
func Load() *Config {
	// .env опционален: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
