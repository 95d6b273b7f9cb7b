package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs, resolved once at boot.
type Config struct {
	Port string

	Catalog CatalogConfig
	Storage StorageConfig
	Redis   RedisConfig

	// Postgres DSN for the scan-history table. Empty disables history.
	DatabaseDSN string

	// AuthSecret signs access tokens. Empty leaves all routes open.
	AuthSecret string
	// APIKeyHash is the bcrypt hash clients must match at /auth/token.
	APIKeyHash string

	// VocabFile optionally points at a newline-separated card-name list
	// that overrides the built-in vocabulary and is hot-reloaded.
	VocabFile string

	OCRLanguage string
}

type CatalogConfig struct {
	BaseURL         string
	APIKey          string
	RefreshInterval time.Duration
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RedisConfig struct {
	Addr     string
	Password string
}

// Load reads configuration from the environment (plus an optional .env
// file) with development defaults for everything except credentials.
func Load() *Config {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}

	v := viper.New()

	v.SetDefault("PORT", "8081")

	v.SetDefault("CATALOG_BASE_URL", "https://api.pokemontcg.io/v2")
	v.SetDefault("CATALOG_API_KEY", "")
	v.SetDefault("CATALOG_REFRESH_HOURS", 12)

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "card-images")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("DB_DSN", "")

	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("API_KEY_HASH", "")

	v.SetDefault("VOCAB_FILE", "")
	v.SetDefault("OCR_LANGUAGE", "eng")

	v.AutomaticEnv()

	return &Config{
		Port: v.GetString("PORT"),
		Catalog: CatalogConfig{
			BaseURL:         v.GetString("CATALOG_BASE_URL"),
			APIKey:          v.GetString("CATALOG_API_KEY"),
			RefreshInterval: time.Duration(v.GetInt("CATALOG_REFRESH_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		DatabaseDSN: v.GetString("DB_DSN"),
		AuthSecret:  v.GetString("AUTH_SECRET"),
		APIKeyHash:  v.GetString("API_KEY_HASH"),
		VocabFile:   v.GetString("VOCAB_FILE"),
		OCRLanguage: v.GetString("OCR_LANGUAGE"),
	}
}
