package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com/ ,http://localhost:5173")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.GoogleEnabled())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreDriver:   StoreMemory,
			StorageDriver: StorageMemory,
			JWTSecret:     "secret",
			JWTTTL:        time.Hour,
		}
	}

	t.Run("Mongo driver needs a URI", func(t *testing.T) {
		cfg := base()
		cfg.StoreDriver = StoreMongo
		assert.Error(t, cfg.Validate())
	})

	t.Run("Unknown driver is rejected", func(t *testing.T) {
		cfg := base()
		cfg.StoreDriver = "sqlite"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Release mode requires a secret", func(t *testing.T) {
		cfg := base()
		cfg.GinMode = "release"
		cfg.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("Development falls back to a local secret", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = ""
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWTSecret)
	})
}
