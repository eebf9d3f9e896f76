package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const ProjectName = "TestGen API"

type Config struct {
	// Server
	Port string
	Env  string

	// OpenSearch
	OpenSearchURL      string
	OpenSearchUsername string
	OpenSearchPassword string
	OpenSearchInsecure bool

	// Gemini AI
	GeminiAPIKey    string
	GeminiModel     string
	GeminiMaxTokens int

	// Redis (optional chapter-key cache; disabled when empty)
	RedisURL           string
	ChapterKeyCacheTTL int // minutes

	// Output
	OutputDir string

	// Frontend
	FrontendURL string

	// Rate limiting
	RateLimitPerMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		OpenSearchURL:      mustGetEnv("OPENSEARCH_URL"),
		OpenSearchUsername: getEnvOrDefault("OPENSEARCH_USERNAME", ""),
		OpenSearchPassword: getEnvOrDefault("OPENSEARCH_PASSWORD", ""),
		OpenSearchInsecure: getEnvAsBoolOrDefault("OPENSEARCH_INSECURE_TLS", false),
		GeminiAPIKey:       mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiMaxTokens:    getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", 30000),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		ChapterKeyCacheTTL: getEnvAsIntOrDefault("CHAPTER_KEY_CACHE_TTL_MINUTES", 60),
		OutputDir:          getEnvOrDefault("OUTPUT_DIR", "./output"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "*"),
		RateLimitPerMin:    getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
