// Package config loads gateway configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the composition root
// needs to wire providers, rate limiting, and the HTTP server.
type Config struct {
	HTTPAddr string

	TatumAPIKeyMainnet     string
	AnkrAPIKeyMainnet      string
	TronGridAPIKeyMainnet  string
	TonAPIKeyMainnet       string
	EtherscanAPIKeyMainnet string

	RedisURL string

	RateLimitPerMinute int
	RateLimitBlockFor  time.Duration

	ProviderTimeout time.Duration

	Environment string
}

// Load reads .env (if present, ignored if not) then populates Config from
// the process environment, falling back to sane defaults per key.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		TatumAPIKeyMainnet:     getEnv("TATUM_API_KEY_MAINNET", ""),
		AnkrAPIKeyMainnet:      getEnv("ANKR_API_KEY_MAINNET", ""),
		TronGridAPIKeyMainnet:  getEnv("TRONGRID_API_KEY_MAINNET", ""),
		TonAPIKeyMainnet:       getEnv("TON_API_KEY_MAINNET", ""),
		EtherscanAPIKeyMainnet: getEnv("ETHERSCAN_API_KEY_MAINNET", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBlockFor:  getEnvDuration("RATE_LIMIT_BLOCK_FOR", time.Minute),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		Environment: getEnv("ENVIRONMENT", "production"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
