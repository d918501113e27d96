package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(32*1024*1024), cfg.Server.MaxFileSize)
	assert.Equal(t, "spa+eng", cfg.OCR.Languages)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "production", cfg.Syntage.Environment)
	assert.Equal(t, "data/snapshot.csv", cfg.Leads.SnapshotCSV)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CATALOG_DIR", "/srv/catalogos")
	t.Setenv("MATCH_CACHE_TTL", "10m")
	t.Setenv("SYNTAGE_ENV", "sandbox")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/srv/catalogos", cfg.Catalog.Dir)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, "sandbox", cfg.Syntage.Environment)
}

func TestLoadConfigBadDuration(t *testing.T) {
	t.Setenv("MATCH_CACHE_TTL", "pronto")

	cfg := LoadConfig()

	assert.Equal(t, 24*time.Hour, cfg.Catalog.CacheTTL)
}
