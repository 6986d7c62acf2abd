package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the broker's settings.
type Config struct {
	Port       string
	DBUrl      string
	DBMaxConns int32
}

// ClientConfig holds the chat client's settings.
type ClientConfig struct {
	BaseURL      string
	WSURL        string
	UserID       int64
	DisplayName  string
	AvatarURL    string
	PollInterval time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbURL := getEnv("DB_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBUrl:      dbURL,
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
	}, nil
}

func LoadClientConfig() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	userID, err := getEnvInt64("CHAT_USER_ID")
	if err != nil {
		return nil, err
	}

	return &ClientConfig{
		BaseURL:      getEnv("CHAT_BASE_URL", "http://localhost:8080/api/v1"),
		WSURL:        getEnv("CHAT_WS_URL", "ws://localhost:8080/api/v1/ws"),
		UserID:       userID,
		DisplayName:  getEnv("CHAT_DISPLAY_NAME", ""),
		AvatarURL:    getEnv("CHAT_AVATAR_URL", ""),
		PollInterval: getEnvDuration("CHAT_POLL_INTERVAL", 30*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getEnvInt64(key string) (int64, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
