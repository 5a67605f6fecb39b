package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           int
	DatabaseURL    string
	LogLevel       string
	OpenAIAPIKey   string
	ChatModel      string
	EmbeddingModel string
	ModelPath      string
	TrainInterval  time.Duration
	NatsURL        string
	NatsToken      string
}

func Load() Config {
	return Config{
		Port:           envInt("INSIGHT_PORT", 8760),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:   envStr("OPENAI_API_KEY", ""),
		ChatModel:      envStr("INSIGHT_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: envStr("INSIGHT_EMBEDDING_MODEL", "text-embedding-3-small"),
		ModelPath:      envStr("INSIGHT_MODEL_PATH", "data/preference_model.json"),
		TrainInterval:  envDuration("INSIGHT_TRAIN_INTERVAL", 24*time.Hour),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
