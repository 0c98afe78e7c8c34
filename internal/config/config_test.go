package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "weather_history_db", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, "open-meteo", cfg.Fetch.Provider)
	assert.Equal(t, 0.5, cfg.Analyzer.StableThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONGODB_DATABASE", "weather_test")
	t.Setenv("FETCH_PROVIDER", "wttr.in")
	t.Setenv("ANALYZER_STABLE_THRESHOLD", "1.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "weather_test", cfg.Mongo.Database)
	assert.Equal(t, "wttr.in", cfg.Fetch.Provider)
	assert.Equal(t, 1.5, cfg.Analyzer.StableThreshold)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("FETCH_PROVIDER", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fetch provider")
}

func TestValidateRejectsInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
}
