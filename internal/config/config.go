package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Index    IndexConfig
	Ai       AIConfig
	Web      WebConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type IndexConfig struct {
	Backend string // "disk" or "postgres"
	Dir     string // disk backend index directory
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "openai"
	OllamaBaseURL     string
	OllamaModel       string
	OpenAIAPIKey      string
	OpenAIModel       string

	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	ChatModel         string
	ChatTimeout       time.Duration
	MaxIterations     int
}

type WebConfig struct {
	SearchTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Index: IndexConfig{
			Backend: getEnv("INDEX_BACKEND", "disk"),
			Dir:     getEnv("INDEX_DIR", "user_indexes"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
			ChatModel:         getEnv("CHAT_MODEL", "openai/gpt-4o-mini"),
			ChatTimeout:       getEnvAsDuration("CHAT_TIMEOUT", 120*time.Second),
			MaxIterations:     getEnvAsInt("MAX_ITERATIONS", 10),
		},
		Web: WebConfig{
			SearchTimeout: getEnvAsDuration("WEB_SEARCH_TIMEOUT", 15*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
