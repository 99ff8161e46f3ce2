package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/hotkey"
	"github.com/yiblet/clipper/internal/store"
)

const (
	// BackendSQLite keeps history in a SQLite database.
	BackendSQLite = "sqlite"
	// BackendFile keeps history in a compressed snapshot file.
	BackendFile = "file"

	MaxHistoryLimit = 1000
)

// Config represents the clipper configuration
type Config struct {
	HistoryLimit  int           `yaml:"history_limit"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	PasteDelay    time.Duration `yaml:"paste_delay"`
	PinOrder      string        `yaml:"pin_order"`
	Hotkey        string        `yaml:"hotkey"`
	IngestOnStart bool          `yaml:"ingest_on_start"`
	Storage       StorageConfig `yaml:"storage"`
	Log           LogConfig     `yaml:"log"`
}

// StorageConfig selects where history is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:  50,
		PollInterval:  250 * time.Millisecond,
		FlushInterval: 30 * time.Second,
		PasteDelay:    50 * time.Millisecond,
		PinOrder:      string(store.PinOrderCreated),
		Hotkey:        hotkey.DefaultToggle.String(),
		IngestOnStart: true,
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Combo parses the configured toggle hotkey.
func (c *Config) Combo() (hotkey.Combo, error) {
	return hotkey.ParseCombo(c.Hotkey)
}

// Keys lists the configuration keys accepted by Get and Update, in display
// order.
var Keys = []string{
	"history-limit",
	"poll-interval",
	"flush-interval",
	"paste-delay",
	"pin-order",
	"hotkey",
	"ingest-on-start",
	"storage-backend",
	"data-dir",
	"log-level",
	"log-format",
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a config manager for ~/.config/clipper/config.yaml
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, clipfs.ConfigDir, "config.yaml")

	return &ConfigManager{
		configPath: configPath,
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist.
// Keys missing from the file keep their default values.
func (cm *ConfigManager) Load() (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(cm.configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cm.validateAndSetDefaults(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := cm.validateAndSetDefaults(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateAndSetDefaults validates configuration and sets defaults for missing fields
func (cm *ConfigManager) validateAndSetDefaults(config *Config) error {
	defaults := DefaultConfig()

	if config.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be greater than 0")
	}
	if config.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("history_limit cannot exceed %d items", MaxHistoryLimit)
	}

	if config.PollInterval == 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.PollInterval < 10*time.Millisecond || config.PollInterval > 10*time.Second {
		return fmt.Errorf("poll_interval must be between 10ms and 10s")
	}

	if config.FlushInterval == 0 {
		config.FlushInterval = defaults.FlushInterval
	}
	if config.FlushInterval < time.Second {
		return fmt.Errorf("flush_interval must be at least 1s")
	}

	if config.PasteDelay < 0 || config.PasteDelay > 2*time.Second {
		return fmt.Errorf("paste_delay must be between 0 and 2s")
	}

	order, err := store.ParsePinOrder(config.PinOrder)
	if err != nil {
		return err
	}
	config.PinOrder = string(order)

	if config.Hotkey == "" {
		config.Hotkey = defaults.Hotkey
	}
	combo, err := hotkey.ParseCombo(config.Hotkey)
	if err != nil {
		return fmt.Errorf("invalid hotkey: %w", err)
	}
	config.Hotkey = combo.String()

	switch config.Storage.Backend {
	case "":
		config.Storage.Backend = defaults.Storage.Backend
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("storage backend must be '%s' or '%s'", BackendSQLite, BackendFile)
	}

	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
		config.Log.Level = strings.ToLower(config.Log.Level)
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}

	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}
	switch config.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log format must be one of auto, text, json")
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "history-limit":
		historyLimit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for history-limit: %s", value)
		}
		config.HistoryLimit = historyLimit
	case "poll-interval":
		if config.PollInterval, err = parseDuration(key, value); err != nil {
			return err
		}
	case "flush-interval":
		if config.FlushInterval, err = parseDuration(key, value); err != nil {
			return err
		}
	case "paste-delay":
		if config.PasteDelay, err = parseDuration(key, value); err != nil {
			return err
		}
	case "pin-order":
		config.PinOrder = value
	case "hotkey":
		config.Hotkey = value
	case "ingest-on-start":
		switch value {
		case "true":
			config.IngestOnStart = true
		case "false":
			config.IngestOnStart = false
		default:
			return fmt.Errorf("invalid boolean value for ingest-on-start: %s (must be 'true' or 'false')", value)
		}
	case "storage-backend":
		config.Storage.Backend = value
	case "data-dir":
		config.Storage.DataDir = value
	case "log-level":
		config.Log.Level = value
	case "log-format":
		config.Log.Format = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	config, err := cm.Load()
	if err != nil {
		return "", err
	}
	return config.value(key)
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(Keys))
	for _, key := range Keys {
		v, err := config.value(key)
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, nil
}

func (c *Config) value(key string) (string, error) {
	switch key {
	case "history-limit":
		return strconv.Itoa(c.HistoryLimit), nil
	case "poll-interval":
		return c.PollInterval.String(), nil
	case "flush-interval":
		return c.FlushInterval.String(), nil
	case "paste-delay":
		return c.PasteDelay.String(), nil
	case "pin-order":
		return c.PinOrder, nil
	case "hotkey":
		return c.Hotkey, nil
	case "ingest-on-start":
		return strconv.FormatBool(c.IngestOnStart), nil
	case "storage-backend":
		return c.Storage.Backend, nil
	case "data-dir":
		if c.Storage.DataDir == "" {
			return "[default]", nil
		}
		return c.Storage.DataDir, nil
	case "log-level":
		return c.Log.Level, nil
	case "log-format":
		return c.Log.Format, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	return d, nil
}
