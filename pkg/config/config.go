package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Storage  StorageConfig
	Mapping  MappingConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type OpenAIConfig struct {
	BaseURL        string
	Token          string
	EmbeddingModel string
	ChatModel      string
}

// StorageConfig selects where content item bytes are read from.
// Mode "gcs" reads from a Cloud Storage bucket, "fs" from a local directory.
type StorageConfig struct {
	Mode     string
	Bucket   string
	LocalDir string
}

type MappingConfig struct {
	ConfidenceThreshold float64
	MaxSuggestions      int
	EmbeddingBatchSize  int
	MaxDocumentChars    int
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// If no .env file found, continue with environment variables
	// (useful for Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	threshold, _ := strconv.ParseFloat(getEnv("MAPPING_CONFIDENCE_THRESHOLD", "0.6"), 64)
	maxSuggestions, _ := strconv.Atoi(getEnv("MAPPING_MAX_SUGGESTIONS", "5"))
	batchSize, _ := strconv.Atoi(getEnv("EMBEDDING_BATCH_SIZE", "100"))
	maxDocChars, _ := strconv.Atoi(getEnv("MAPPING_MAX_DOCUMENT_CHARS", "50000"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "certmap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Token:          getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		},
		Storage: StorageConfig{
			Mode:     getEnv("STORAGE_MODE", "fs"),
			Bucket:   getEnv("STORAGE_GCS_BUCKET", ""),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "uploads"),
		},
		Mapping: MappingConfig{
			ConfidenceThreshold: threshold,
			MaxSuggestions:      maxSuggestions,
			EmbeddingBatchSize:  batchSize,
			MaxDocumentChars:    maxDocChars,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
