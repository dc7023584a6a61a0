package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tilecity.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_missingFileUsesDefaults(t *testing.T) {
	t.Setenv("TILECITY_ADMIN_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, defaults(), cfg)
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("TILECITY_ADMIN_KEY", "")
	cfg, err := Load(writeConfig(t, `
[simulation]
seed = 42
collision_avoidance = true
repath_after = 5
tick_interval = "20ms"

[grid]
cols = 40
rows = 30

[api]
port = 9090
stream_interval = "1s"

[logging]
level = "debug"
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.True(t, cfg.Simulation.CollisionAvoidance)
	assert.Equal(t, 5, cfg.Simulation.RepathAfter)
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickInterval.Duration)
	assert.Equal(t, 1.0, cfg.Simulation.Speed, "unset keys keep defaults")
	assert.Equal(t, 40, cfg.Grid.Cols)
	assert.Equal(t, 30, cfg.Grid.Rows)
	assert.Equal(t, "saves", cfg.Grid.SaveDir)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, time.Second, cfg.API.StreamInterval.Duration)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
}

func TestLoad_adminKeyFromEnv(t *testing.T) {
	t.Setenv("TILECITY_ADMIN_KEY", "s3cret")
	cfg, err := Load(writeConfig(t, "[api]\nadmin_key = \"from-file\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.API.AdminKey)
}

func TestLoad_invalid(t *testing.T) {
	t.Setenv("TILECITY_ADMIN_KEY", "")
	for name, body := range map[string]string{
		"zero grid":       "[grid]\ncols = 0\n",
		"negative repath": "[simulation]\nrepath_after = -1\n",
		"negative speed":  "[simulation]\nspeed = -2.0\n",
		"bad duration":    "[simulation]\ntick_interval = \"soon\"\n",
		"zero interval":   "[simulation]\ntick_interval = \"0s\"\n",
		"unknown format":  "[logging]\nformat = \"xml\"\n",
		"malformed toml":  "[grid\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_fallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LoggingConfig{Level: "chatty"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LoggingConfig{Level: "warn"}.SlogLevel())
	assert.NotNil(t, LoggingConfig{Format: "json"}.NewLogger())
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("TILECITY_ADMIN_KEY", "")
	cfg, err := Load(filepath.Join("..", "..", "config", "tilecity.toml"))
	require.NoError(t, err)
	assert.Equal(t, "config/zones.yaml", cfg.Zones.RulesFile)
}
