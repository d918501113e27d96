package config

import (
	"os"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	OCR     OCRConfig
	Catalog CatalogConfig
	OpenAI  OpenAIConfig
	Syntage SyntageConfig
	Leads   LeadsConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port        string
	MaxFileSize int64
}

// OCRConfig holds the Tesseract settings.
type OCRConfig struct {
	TesseractDataPath string
	Languages         string
}

// CatalogConfig locates the SAT activity catalogs and controls the
// match cache.
type CatalogConfig struct {
	Dir          string
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// OpenAIConfig holds the models used by the SAT activity matcher. An
// empty APIKey disables the embedding and LLM stages.
type OpenAIConfig struct {
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

// SyntageConfig holds the factoraje API settings.
type SyntageConfig struct {
	Environment string
	APIKey      string
}

// LeadsConfig locates the lead snapshot files.
type LeadsConfig struct {
	SnapshotCSV string
	ReviewedCSV string
	BlockedCSV  string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			MaxFileSize: 32 * 1024 * 1024, // 32 MB
		},
		OCR: OCRConfig{
			TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/4.00/tessdata"),
			Languages:         getEnv("OCR_LANGS", "spa+eng"),
		},
		Catalog: CatalogConfig{
			Dir:          getEnv("CATALOG_DIR", "data"),
			CacheTTL:     getEnvAsDuration("MATCH_CACHE_TTL", 24*time.Hour),
			CacheCleanup: getEnvAsDuration("MATCH_CACHE_CLEANUP", time.Hour),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4.1-mini"),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Syntage: SyntageConfig{
			Environment: getEnv("SYNTAGE_ENV", "production"),
			APIKey:      getEnv("SYNTAGE_API_KEY", ""),
		},
		Leads: LeadsConfig{
			SnapshotCSV: getEnv("LEADS_SNAPSHOT_CSV", "data/snapshot.csv"),
			ReviewedCSV: getEnv("LEADS_REVIEWED_CSV", "data/reviewed_leads_app.csv"),
			BlockedCSV:  getEnv("LEADS_BLOCKED_CSV", "www/cat_credit_id_rfc.csv"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
