package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Window)
	assert.Equal(t, int64(50), cfg.Monitor.Threshold)
	assert.Equal(t, 60*time.Second, cfg.Monitor.PollInterval)
	assert.True(t, cfg.Monitor.Autostart)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://guard@localhost/guard")
	t.Setenv("MONITOR_THRESHOLD", "10")
	t.Setenv("MONITOR_WINDOW", "30s")
	t.Setenv("AUTH_PUBLIC_KEY_DATA", "pem-data")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg.Monitor.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Window)
	assert.Equal(t, "postgres://guard@localhost/guard", cfg.Database.URL)
	assert.Equal(t, []byte("pem-data"), cfg.Auth.PublicKey)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Storage: StorageConfig{Driver: "memory"},
			Monitor: MonitorConfig{Window: time.Minute, Threshold: 1, PollInterval: time.Second},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Monitor.Threshold = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Monitor.Window = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Monitor.PollInterval = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Driver = "postgres"
	assert.Error(t, cfg.Validate(), "postgres needs database.url")

	cfg = base()
	cfg.Storage.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}
