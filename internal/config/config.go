// Package config loads melodycodec settings from the environment and an optional .env file
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/james-see/melodycodec/pkg/codec"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        int

	// Codec
	Preset          string // Named preset, overridden field by field below
	MinPitch        *int   // nil = take from preset
	MaxPitch        *int   // nil = take from preset
	TransposeToKey  int
	Strict          bool
	StepsPerQuarter int
}

// Load reads .env (when present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadVerbose is Load for long running processes, it logs a missing .env file
func LoadVerbose() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Preset:      getEnv("MELODY_PRESET", codec.PresetBasicRNN),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MinPitch, err = getEnvOptionalInt("MELODY_MIN_PITCH"); err != nil {
		return nil, err
	}
	if cfg.MaxPitch, err = getEnvOptionalInt("MELODY_MAX_PITCH"); err != nil {
		return nil, err
	}
	if cfg.TransposeToKey, err = getEnvInt("MELODY_TRANSPOSE_TO_KEY", codec.DefaultTransposeToKey); err != nil {
		return nil, err
	}
	if cfg.StepsPerQuarter, err = getEnvInt("MELODY_STEPS_PER_QUARTER", 4); err != nil {
		return nil, err
	}
	if cfg.Strict, err = getEnvBool("MELODY_STRICT", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CodecConfig resolves the preset and applies the pitch overrides
func (c *Config) CodecConfig() (codec.Config, error) {
	p, err := codec.LookupPreset(c.Preset)
	if err != nil {
		return codec.Config{}, err
	}

	cc := p.Config
	if c.MinPitch != nil {
		cc.MinPitch = *c.MinPitch
	}
	if c.MaxPitch != nil {
		cc.MaxPitch = *c.MaxPitch
	}
	cc.TransposeToKey = c.TransposeToKey
	cc.Strict = c.Strict

	return cc, cc.Validate()
}

// NewCodec builds the configured codec
func (c *Config) NewCodec() (*codec.Codec, error) {
	cc, err := c.CodecConfig()
	if err != nil {
		return nil, err
	}
	return codec.New(cc)
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// getEnvOptionalInt returns nil when key is unset or empty
func getEnvOptionalInt(key string) (*int, error) {
	if os.Getenv(key) == "" {
		return nil, nil
	}
	n, err := getEnvInt(key, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
