// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation and server settings.
//
// A Config is built once at startup (Default or Load) and handed to the
// simulation by pointer. Nothing reads settings from globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// Tile and timing constants shared by every world.
const (
	TileSize                = 16
	StepCommitmentThreshold = TileSize / 4 // pixels
	PressurePlateCooldown   = 0.3          // seconds
	AnimationsFPS           = 10
	DirectionChangeCooldown = 0.1 // seconds
	HeroRecoveryPerSecond   = 1.0
	MaxPlayers              = 4
	DefaultWorldSize        = 30
	DefaultBaseEntitySpeed  = 30.0
)

// Supported languages for localized toasts.
const (
	LangEnglish = "en"
	LangItalian = "it"
)

// SimConfig holds everything the simulation core reads.
type SimConfig struct {
	BaseEntitySpeed         float32 // Speed multiplier applied to every mover
	TileSize                float32 // Pixels per tile
	StepCommitmentThreshold float32 // Max pixel offset at which a new direction is accepted
	PressurePlateCooldown   float32 // Seconds between plate transitions
	DirectionChangeCooldown float32
	HeroRecoveryPerSecond   float32
	WorldWidth              int // Tiles
	WorldHeight             int
	ViewportWidth           float32 // Tiles the host camera shows
	ViewportHeight          float32
	Lang                    string
	TickRate                int // Ticks per second driven by the host
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		BaseEntitySpeed:         DefaultBaseEntitySpeed,
		TileSize:                TileSize,
		StepCommitmentThreshold: StepCommitmentThreshold,
		PressurePlateCooldown:   PressurePlateCooldown,
		DirectionChangeCooldown: DirectionChangeCooldown,
		HeroRecoveryPerSecond:   HeroRecoveryPerSecond,
		WorldWidth:              DefaultWorldSize,
		WorldHeight:             DefaultWorldSize,
		ViewportWidth:           20,
		ViewportHeight:          12,
		Lang:                    LangEnglish,
		TickRate:                30,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if v := getEnvFloat("BASE_ENTITY_SPEED", 0); v > 0 {
		cfg.BaseEntitySpeed = float32(v)
	}
	if w := getEnvInt("WORLD_WIDTH", 0); w > 0 {
		cfg.WorldWidth = w
	}
	if h := getEnvInt("WORLD_HEIGHT", 0); h > 0 {
		cfg.WorldHeight = h
	}
	if v := getEnvFloat("VIEWPORT_WIDTH", 0); v > 0 {
		cfg.ViewportWidth = float32(v)
	}
	if v := getEnvFloat("VIEWPORT_HEIGHT", 0); v > 0 {
		cfg.ViewportHeight = float32(v)
	}
	if r := getEnvInt("TICK_RATE", 0); r > 0 {
		cfg.TickRate = r
	}
	if lang := os.Getenv("LANG_CODE"); lang != "" {
		cfg.Lang = strings.ToLower(lang)
	}

	return cfg
}

// TickInterval converts the tick rate into a ticker period.
func (s SimConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(s.TickRate)
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	DebugAddr      string // pprof + metrics; empty disables
	AllowedOrigins []string
	RateLimit      float64 // Requests per second per IP
	RateBurst      int
	BroadcastHz    int // Snapshot pushes per second over WebSocket
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:           ":3000",
		DebugAddr:      "localhost:6060",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimit:      20,
		RateBurst:      40,
		BroadcastHz:    10,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Addr = ":" + strconv.Itoa(p)
	}
	if v, ok := os.LookupEnv("DEBUG_ADDR"); ok {
		cfg.DebugAddr = v
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	if r := getEnvFloat("RATE_LIMIT", 0); r > 0 {
		cfg.RateLimit = r
	}
	if b := getEnvInt("RATE_BURST", 0); b > 0 {
		cfg.RateBurst = b
	}
	if hz := getEnvInt("BROADCAST_HZ", 0); hz > 0 {
		cfg.BroadcastHz = hz
	}

	return cfg
}

// =============================================================================
// LOGGING, STORAGE, EVENT LOG, TELEMETRY, PROFILING
// =============================================================================

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// StorageConfig selects the key-value store backing persisted flags.
type StorageConfig struct {
	Path string // bbolt file; empty keeps state in memory
}

// EventLogConfig controls the world-update journal.
type EventLogConfig struct {
	Path       string // JSONL file; empty disables the journal
	RateLimit  float64
	RateBurst  int
	PlayerRate float64 // Per-player update budget
}

// TelemetryConfig toggles OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// WorldsConfig locates the world data files the server hosts.
type WorldsConfig struct {
	Dir   string // Directory of *.json world files
	Start uint32 // World the heroes start in
}

// ProfileConfig enables github.com/pkg/profile in the server binary.
type ProfileConfig struct {
	Mode string // cpu, mem, block, mutex, trace; empty disables
	Path string
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	Sim       SimConfig
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	EventLog  EventLogConfig
	Telemetry TelemetryConfig
	Profile   ProfileConfig
	Worlds    WorldsConfig
}

// Default returns a configuration with no environment applied.
func Default() *Config {
	return &Config{
		Sim:       DefaultSim(),
		Server:    DefaultServer(),
		Log:       LogConfig{Level: "info", Format: "console"},
		EventLog:  EventLogConfig{RateLimit: 2000, RateBurst: 4000, PlayerRate: 200},
		Telemetry: TelemetryConfig{ServiceName: "bitscape"},
		Profile:   ProfileConfig{Path: "."},
		Worlds:    WorldsConfig{Dir: "worlds", Start: 1},
	}
}

// Load returns the complete configuration with environment overrides.
func Load() (*Config, error) {
	cfg := Default()
	cfg.Sim = SimFromEnv()
	cfg.Server = ServerFromEnv()

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.Storage.Path = os.Getenv("STORAGE_PATH")
	cfg.EventLog.Path = os.Getenv("EVENT_LOG_PATH")
	if r := getEnvFloat("EVENT_LOG_RATE", 0); r > 0 {
		cfg.EventLog.RateLimit = r
	}
	cfg.Telemetry.Enabled = getEnvBool("OTEL_ENABLED", false)
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := os.Getenv("WORLDS_DIR"); v != "" {
		cfg.Worlds.Dir = v
	}
	if v := getEnvInt("START_WORLD", 0); v > 0 {
		cfg.Worlds.Start = uint32(v)
	}
	cfg.Profile.Mode = os.Getenv("PROFILE_MODE")
	if v := os.Getenv("PROFILE_PATH"); v != "" {
		cfg.Profile.Path = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.TileSize <= 0:
		return fmt.Errorf("%w: tile size must be positive", ErrInvalidConfig)
	case c.Sim.BaseEntitySpeed <= 0:
		return fmt.Errorf("%w: base entity speed must be positive", ErrInvalidConfig)
	case c.Sim.WorldWidth <= 0 || c.Sim.WorldHeight <= 0:
		return fmt.Errorf("%w: world size must be positive", ErrInvalidConfig)
	case c.Sim.ViewportWidth <= 0 || c.Sim.ViewportHeight <= 0:
		return fmt.Errorf("%w: viewport size must be positive", ErrInvalidConfig)
	case c.Sim.Lang != LangEnglish && c.Sim.Lang != LangItalian:
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidConfig, c.Sim.Lang)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
