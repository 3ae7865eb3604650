package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StorePath string

	// Feed
	FeedTimeout  time.Duration
	FeedMaxItems int

	// Display
	CarouselInterval time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitImport  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があるため、未設定でも起動できる。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StorePath = getEnvString("STORE_PATH", "standby.db")
	cfg.FeedTimeout = getEnvDuration("FEED_TIMEOUT", 10*time.Second)
	cfg.FeedMaxItems = getEnvInt("FEED_MAX_ITEMS", 10)
	cfg.CarouselInterval = getEnvDuration("CAROUSEL_INTERVAL", 7*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitImport = getEnvInt("RATE_LIMIT_IMPORT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
