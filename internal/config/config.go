package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               int
	NatsURL            string
	NatsToken          string
	DatabaseURL        string
	LogLevel           string
	APIToken           string
	ScoringPath        string
	EvalIntervalSecs   int
	CollectorTimeoutMS int
}

func Load() Config {
	return Config{
		Port:               envInt("WARDEN_PORT", 8760),
		NatsURL:            envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:          envStr("NATS_TOKEN", ""),
		DatabaseURL:        envStr("DATABASE_URL", ""),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		APIToken:           envStr("WARDEN_API_TOKEN", ""),
		ScoringPath:        envStr("WARDEN_SCORING_CONFIG", ""),
		EvalIntervalSecs:   envInt("WARDEN_EVAL_INTERVAL_SECONDS", 30),
		CollectorTimeoutMS: envInt("WARDEN_COLLECTOR_TIMEOUT_MS", 2000),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
