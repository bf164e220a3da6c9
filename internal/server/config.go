package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prasadtara/enginesim/internal/engine"
)

// Config holds all simulator configuration: the engine tuning inputs, display
// preferences, CSV logging, and the HTTP server.
type Config struct {
	mu sync.RWMutex

	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Display    DisplayConfig    `yaml:"display" json:"display"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`

	path string // file path for save/load
}

// SimulationConfig carries the raw tuning inputs plus run policy. Pressures
// are PSI, matching the engine's working unit.
type SimulationConfig struct {
	ElevationM     float64 `yaml:"elevation_m" json:"elevationM"`
	BasePeakHP     float64 `yaml:"base_peak_hp" json:"basePeakHp"`
	MaxBoostPSI    float64 `yaml:"max_boost_psi" json:"maxBoostPsi"`
	RedlineRPM     int     `yaml:"redline_rpm" json:"redlineRpm"`
	IdleRPM        int     `yaml:"idle_rpm" json:"idleRpm"`
	BoostMarginPSI float64 `yaml:"boost_margin_psi" json:"boostMarginPsi"`

	TickMs      int   `yaml:"tick_ms" json:"tickMs"`           // producer cadence
	DurationS   int   `yaml:"duration_s" json:"durationS"`     // 0 = run until stopped
	HistorySize int   `yaml:"history_size" json:"historySize"` // MAP plot window
	Seed        int64 `yaml:"seed" json:"seed"`                // 0 = time-seeded
}

// Tuning converts the config into the engine's tuning inputs.
func (s SimulationConfig) Tuning() engine.Tuning {
	return engine.Tuning{
		ElevationM:     s.ElevationM,
		BasePeakHP:     s.BasePeakHP,
		MaxBoostPSI:    s.MaxBoostPSI,
		RedlineRPM:     s.RedlineRPM,
		IdleRPM:        s.IdleRPM,
		BoostMarginPSI: s.BoostMarginPSI,
		HistorySize:    s.HistorySize,
		TickInterval:   time.Duration(s.TickMs) * time.Millisecond,
	}
}

// Duration returns the configured run length, 0 meaning unbounded.
func (s SimulationConfig) Duration() time.Duration {
	return time.Duration(s.DurationS) * time.Second
}

type DisplayConfig struct {
	PressureUnit string  `yaml:"pressure_unit" json:"pressureUnit"` // "psi" or "kpa"
	RPMGaugePad  int     `yaml:"rpm_gauge_pad" json:"rpmGaugePad"`  // headroom above redline
	MAPGaugePad  float64 `yaml:"map_gauge_pad" json:"mapGaugePad"`  // headroom above max boost (PSI)
}

type LoggingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Path     string `yaml:"path" json:"path"`
	Interval int    `yaml:"interval_ms" json:"intervalMs"` // ms between log entries
}

type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr" json:"listenAddr"`
	BroadcastMs int    `yaml:"broadcast_ms" json:"broadcastMs"` // consumer cadence
}

// DefaultConfig returns a config with sensible defaults: a 300 HP engine at
// sea level targeting 20 PSI of absolute manifold pressure.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			ElevationM:     0,
			BasePeakHP:     300,
			MaxBoostPSI:    20,
			RedlineRPM:     7000,
			IdleRPM:        800,
			BoostMarginPSI: 0,
			TickMs:         100,
			DurationS:      0,
			HistorySize:    450,
			Seed:           0,
		},
		Display: DisplayConfig{
			PressureUnit: "psi",
			RPMGaugePad:  500,
			MAPGaugePad:  7.5,
		},
		Logging: LoggingConfig{
			Enabled:  false,
			Path:     "/var/log/enginesim",
			Interval: 100,
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			BroadcastMs: 50,
		},
	}
}

// LoadConfig builds the effective config in three layers: defaults, then the
// YAML file at path if it exists, then .env files and environment variables.
func LoadConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.path = path

	switch data, err := os.ReadFile(path); {
	case err != nil:
		log.Printf("[config] no config at %s, using defaults", path)
	case yaml.Unmarshal(data, cfg) != nil:
		log.Printf("[config] %s is not valid YAML, using defaults", path)
		cfg = DefaultConfig()
		cfg.path = path
	default:
		log.Printf("[config] loaded from %s", path)
	}

	// A .env next to the config file, then one in the working directory.
	loadEnvFile(filepath.Join(filepath.Dir(path), ".env"))
	loadEnvFile(".env")

	cfg.applyEnvOverrides()
	return cfg
}

// loadEnvFile reads a KEY=VALUE file into the process environment. Real
// environment variables take precedence over file entries.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	log.Printf("[config] loading .env from %s", path)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}

// applyEnvOverrides lets the environment override individual fields without a
// config file edit.
func (c *Config) applyEnvOverrides() {
	envFloat("ELEVATION_M", &c.Simulation.ElevationM)
	envFloat("BASE_PEAK_HP", &c.Simulation.BasePeakHP)
	envFloat("MAX_BOOST_PSI", &c.Simulation.MaxBoostPSI)
	envInt("REDLINE_RPM", &c.Simulation.RedlineRPM)
	envInt("IDLE_RPM", &c.Simulation.IdleRPM)
	envInt("TICK_MS", &c.Simulation.TickMs)
	envInt("DURATION_S", &c.Simulation.DurationS)
	if v := os.Getenv("SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Simulation.Seed = n
		}
	}
	envStr("LISTEN_ADDR", &c.Server.ListenAddr)
	envStr("PRESSURE_UNIT", &c.Display.PressureUnit)
	if v := os.Getenv("LOG_ENABLED"); v != "" {
		c.Logging.Enabled = v == "1" || v == "true" || v == "yes"
	}
	envStr("LOG_PATH", &c.Logging.Path)
	envInt("LOG_INTERVAL_MS", &c.Logging.Interval)
}

// Save writes the config to its YAML file.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		c.path = "/etc/enginesim/config.yaml"
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// ToJSON serializes config for the API.
func (c *Config) ToJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c)
}

// UpdateFromJSON applies a partial JSON config update by deep-merging
// incoming fields into the existing config, then re-validates the tuning
// inputs through the engine. Invalid updates are rejected wholesale.
func (c *Config) UpdateFromJSON(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var patch map[string]interface{}
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("unmarshal patch: %w", err)
	}

	currentBytes, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal current config: %w", err)
	}
	var base map[string]interface{}
	if err := json.Unmarshal(currentBytes, &base); err != nil {
		return fmt.Errorf("unmarshal current config: %w", err)
	}

	deepMerge(base, patch)

	// Trial-decode the merged result into a scratch config so a bad patch
	// cannot leave c half-updated.
	merged, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("marshal merged config: %w", err)
	}
	next := Config{path: c.path}
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("unmarshal merged config: %w", err)
	}
	if _, err := next.Simulation.Tuning().Derive(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}

	c.Simulation = next.Simulation
	c.Display = next.Display
	c.Logging = next.Logging
	c.Server = next.Server
	return nil
}

// deepMerge recursively merges src into dst: nested maps merge, everything
// else in src overwrites dst.
func deepMerge(dst, src map[string]interface{}) {
	for key, srcVal := range src {
		srcMap, srcOk := srcVal.(map[string]interface{})
		dstMap, dstOk := dst[key].(map[string]interface{})
		if srcOk && dstOk {
			deepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
}
