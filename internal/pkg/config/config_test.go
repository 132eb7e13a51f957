package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://finlife.fss.or.kr/finlifeapi", cfg.APIBaseURL)
		assert.Equal(t, []string{"020000"}, cfg.Categories)
		assert.Equal(t, 20, cfg.PageSize)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 24*time.Hour, cfg.SyncInterval)
	})

	t.Run("category list is split and trimmed", func(t *testing.T) {
		t.Setenv("SYNC_CATEGORIES", "020000, 030300 ,")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"020000", "030300"}, cfg.Categories)
	})

	t.Run("malformed page size fails", func(t *testing.T) {
		t.Setenv("SYNC_PAGE_SIZE", "lots")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-positive page size fails", func(t *testing.T) {
		t.Setenv("SYNC_PAGE_SIZE", "0")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed interval fails", func(t *testing.T) {
		t.Setenv("SYNC_INTERVAL", "tomorrow")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestRequired(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.RequireDB())
	assert.Error(t, cfg.RequireAPI())

	cfg.DatabaseDSN = "postgres://localhost/finsync"
	cfg.APIKey = "key"
	assert.NoError(t, cfg.RequireDB())
	assert.NoError(t, cfg.RequireAPI())
}
