// control/config.go
// Author: momentics <momentics@gmail.com>
//
// TOML configuration for hioload-sock and a thread-safe store that
// propagates reloads to registered listeners.

package control

import (
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Config carries the framing and runtime knobs of a connection.
type Config struct {
	// HeaderWidth is the block header size in bytes, 2 or 4.
	HeaderWidth int `toml:"header_width"`
	// Separator terminates delimiter-based reads.
	Separator string `toml:"separator"`
	// ReadChunk is the size of one transport read.
	ReadChunk int `toml:"read_chunk"`
	// MaxPayload caps inbound block payloads; 0 disables the cap.
	MaxPayload int `toml:"max_payload"`
	// PollInterval bounds a single reactor wait so cancellation is observed.
	PollInterval time.Duration `toml:"poll_interval"`

	Log LogConfig `toml:"log"`
}

// LogConfig selects logger level and output format.
type LogConfig struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		HeaderWidth:  2,
		Separator:    "\n",
		ReadChunk:    4096,
		MaxPayload:   0,
		PollInterval: 100 * time.Millisecond,
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.HeaderWidth != 2 && c.HeaderWidth != 4 {
		return fmt.Errorf("header_width must be 2 or 4, got %d", c.HeaderWidth)
	}
	if c.Separator == "" {
		return fmt.Errorf("separator must not be empty")
	}
	if c.ReadChunk <= 0 {
		return fmt.Errorf("read_chunk must be positive, got %d", c.ReadChunk)
	}
	if c.MaxPayload < 0 {
		return fmt.Errorf("max_payload must not be negative, got %d", c.MaxPayload)
	}
	if c.HeaderWidth == 2 && c.MaxPayload > 0xFFFF {
		return fmt.Errorf("max_payload %d exceeds 2-byte header limit", c.MaxPayload)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ConfigStore holds the active Config and notifies listeners on change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore initializes a store with cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// Get returns the active configuration.
func (cs *ConfigStore) Get() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Set validates and installs cfg, then dispatches reload listeners.
func (cs *ConfigStore) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	listeners := slices.Clone(cs.listeners)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Reload reads path and installs the result.
func (cs *ConfigStore) Reload(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	return cs.Set(cfg)
}

// OnReload registers a listener called after every successful Set.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
