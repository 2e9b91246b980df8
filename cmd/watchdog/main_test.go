package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("explicit missing path is an error", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing default path falls back to built-in defaults", func(t *testing.T) {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			t.Skipf("%s exists on this host", defaultConfigPath)
		}
		t.Setenv("RADIO_WATCHDOG_STREAM_URL", "")

		cfg, err := loadConfig(defaultConfigPath)
		require.NoError(t, err)
		assert.Equal(t, "https://azuracast.turvilleweb.com/listen/rcm_radio/radio.mp3", cfg.StreamURL)
		assert.Equal(t, 60*time.Second, cfg.OfflineGracePeriod)
	})

	t.Run("file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stream_url: http://radio.example.com/live\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://radio.example.com/live", cfg.StreamURL)
	})
}
