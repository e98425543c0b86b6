package config

import (
	"os"
	"strconv"
	"time"
)

const (
	ProviderMistral = "mistral"
	ProviderGemini  = "gemini"

	HistoryFile     = "file"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	TavilyApiKey string
	TavilyURL    string

	LLMProvider   string
	MistralApiKey string
	GoogleApiKey  string
	ChatModel     string

	HistoryBackend string
	HistoryPath    string
	ServerURL      string

	HNCacheTTL time.Duration
}

func Load() *Config {
	provider := getEnv("LLM_PROVIDER", ProviderMistral)

	return &Config{
		Port:           getEnv("PORT", "8081"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		TavilyApiKey:   getEnv("TAVILY_API_KEY", ""),
		TavilyURL:      getEnv("TAVILY_URL", "https://api.tavily.com/search"),
		LLMProvider:    provider,
		MistralApiKey:  getEnv("MISTRAL_API_KEY", ""),
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		ChatModel:      getEnv("CHAT_MODEL", defaultModel(provider)),
		HistoryBackend: getEnv("HISTORY_BACKEND", HistoryFile),
		HistoryPath:    getEnv("HISTORY_PATH", ""),
		ServerURL:      getEnv("SERVER_URL", "http://localhost:8081"),
		HNCacheTTL:     time.Duration(getEnvAsInt("HN_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "mistral-large-latest"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
