package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.Simulation.Tuning().Derive()
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "psi", cfg.Display.PressureUnit)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, DefaultConfig().Simulation, cfg.Simulation)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
simulation:
  elevation_m: 1500
  base_peak_hp: 250
  max_boost_psi: 18
  redline_rpm: 6500
  idle_rpm: 900
  tick_ms: 50
  seed: 42
display:
  pressure_unit: kpa
server:
  listen_addr: ":9090"
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg := LoadConfig(path)
	assert.Equal(t, 1500.0, cfg.Simulation.ElevationM)
	assert.Equal(t, 250.0, cfg.Simulation.BasePeakHP)
	assert.Equal(t, 6500, cfg.Simulation.RedlineRPM)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "kpa", cfg.Display.PressureUnit)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)

	tn := cfg.Simulation.Tuning()
	assert.Equal(t, 50*time.Millisecond, tn.TickInterval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDLINE_RPM", "8000")
	t.Setenv("MAX_BOOST_PSI", "25")
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("LOG_ENABLED", "true")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, 8000, cfg.Simulation.RedlineRPM)
	assert.Equal(t, 25.0, cfg.Simulation.MaxBoostPSI)
	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
	assert.True(t, cfg.Logging.Enabled)
}

func TestUpdateFromJSONMergesPartial(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.UpdateFromJSON([]byte(`{"simulation":{"redlineRpm":7500},"display":{"pressureUnit":"kpa"}}`))
	require.NoError(t, err)

	assert.Equal(t, 7500, cfg.Simulation.RedlineRPM)
	assert.Equal(t, "kpa", cfg.Display.PressureUnit)
	// Untouched fields survive the merge.
	assert.Equal(t, 300.0, cfg.Simulation.BasePeakHP)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestUpdateFromJSONRejectsInvalidTuning(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.UpdateFromJSON([]byte(`{"simulation":{"idleRpm":9000}}`))
	require.Error(t, err)
	// The bad patch must not stick.
	assert.Equal(t, 800, cfg.Simulation.IdleRPM)
}

func TestUpdateFromJSONRejectsMalformed(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.UpdateFromJSON([]byte(`{nope`)))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.path = path
	cfg.Simulation.RedlineRPM = 9000
	require.NoError(t, cfg.Save())

	loaded := LoadConfig(path)
	assert.Equal(t, 9000, loaded.Simulation.RedlineRPM)
}
