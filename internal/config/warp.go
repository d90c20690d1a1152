package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresmejia3/warpframe/internal/node"
	"github.com/andresmejia3/warpframe/internal/pad"
	"github.com/andresmejia3/warpframe/internal/sampler"
)

// maxFileSize bounds preset files; anything larger is not a preset.
const maxFileSize = 1 * 1024 * 1024

// WarpConfig is a warp preset. Every field is optional: nil fields fall
// back to the node's declared defaults through the Get* accessors, so a
// partial preset is always safe.
type WarpConfig struct {
	Padding       *float64 `json:"padding,omitempty"`
	PaddingMode   *string  `json:"padding_mode,omitempty"`
	Sampler       *string  `json:"sampler,omitempty"`
	Engines       *int     `json:"engines,omitempty"`
	WorkerTimeout *string  `json:"worker_timeout,omitempty"` // duration string like "30s"
}

// EmptyWarpConfig returns a preset with every field unset.
func EmptyWarpConfig() *WarpConfig {
	return &WarpConfig{}
}

// LoadWarpConfig reads a JSON preset from path.
func LoadWarpConfig(path string) (*WarpConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyWarpConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every field that is set.
func (c *WarpConfig) Validate() error {
	if c.Padding != nil && (*c.Padding < 0 || *c.Padding > 1) {
		return fmt.Errorf("padding must be between 0 and 1, got %f", *c.Padding)
	}
	if c.PaddingMode != nil {
		if _, err := pad.ParseMode(*c.PaddingMode); err != nil {
			return err
		}
	}
	if c.Sampler != nil {
		if _, err := sampler.ByName(*c.Sampler); err != nil {
			return err
		}
	}
	if c.Engines != nil && *c.Engines < 1 {
		return fmt.Errorf("engines must be at least 1, got %d", *c.Engines)
	}
	if c.WorkerTimeout != nil && *c.WorkerTimeout != "" {
		if _, err := time.ParseDuration(*c.WorkerTimeout); err != nil {
			return fmt.Errorf("invalid worker_timeout '%s': %w", *c.WorkerTimeout, err)
		}
	}
	return nil
}

// GetPadding returns the padding fraction or the node default.
func (c *WarpConfig) GetPadding() float64 {
	if c.Padding == nil {
		return node.DefaultPadding
	}
	return *c.Padding
}

// GetPaddingMode returns the padding mode or the node default.
func (c *WarpConfig) GetPaddingMode() pad.Mode {
	if c.PaddingMode == nil {
		m, _ := pad.ParseMode(node.DefaultPaddingMode)
		return m
	}
	m, err := pad.ParseMode(*c.PaddingMode)
	if err != nil {
		return pad.Reflect
	}
	return m
}

// GetSampler returns the sampler name or the default.
func (c *WarpConfig) GetSampler() string {
	if c.Sampler == nil {
		return sampler.Default
	}
	return *c.Sampler
}

// GetEngines returns the engine count or 1.
func (c *WarpConfig) GetEngines() int {
	if c.Engines == nil {
		return 1
	}
	return *c.Engines
}

// GetWorkerTimeout parses the per-frame timeout, defaulting to 30s.
func (c *WarpConfig) GetWorkerTimeout() time.Duration {
	if c.WorkerTimeout == nil || *c.WorkerTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.WorkerTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
