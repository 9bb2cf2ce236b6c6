package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	AIAPIKey       string
	EmbedModel     string
	EmbedDim       int
	GenModel       string
	CollectionName string
	Port           string
	JWTSecret      string
	AppEnv         string

	// Optional S3 archival of the original upload bytes. Left disabled when
	// credentials are absent.
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:       getEnvInt("EMBED_DIM", 768),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		CollectionName: getEnv("COLLECTION_NAME", "documents2"),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AppEnv:         getEnv("APP_ENV", "development"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "rag-platform-docs"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
