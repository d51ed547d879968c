package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Built-in defaults, used when neither a config file nor the environment
// sets a value.
const (
	DefaultMemoryMB     = 1024
	DefaultCores        = 2
	DefaultNamePrefix   = "efivm"
	DefaultPollInterval = 50 * time.Millisecond

	// MaxCores is the largest virtual processor count Hyper-V accepts for a
	// generation 2 VM.
	MaxCores = 240
)

// Config represents the efivm configuration
type Config struct {
	Defaults Defaults `mapstructure:"defaults"`
	Console  Console  `mapstructure:"console"`
}

// Defaults contains default values for launching a VM
type Defaults struct {
	MemoryMB   int    `mapstructure:"memory_mb"`
	Cores      int    `mapstructure:"cores"`
	NamePrefix string `mapstructure:"name_prefix"`
}

// Console contains serial console settings
type Console struct {
	// PollInterval is the delay between attempts to open the COM1 pipe
	// while the guest firmware has not opened it yet.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Raw          *bool         `mapstructure:"raw"`
}

// ShouldUseRawMode returns whether the host terminal is switched to raw mode
// while attached. Defaults to true when not explicitly set.
func (c *Console) ShouldUseRawMode() bool {
	if c.Raw == nil {
		return true
	}
	return *c.Raw
}

var (
	ErrInvalidMemory       = errors.New("config: memory must be at least 1 MB")
	ErrInvalidCores        = fmt.Errorf("config: cores must be between 1 and %d", MaxCores)
	ErrInvalidPollInterval = errors.New("config: console poll interval must be positive")
)

// Load loads the configuration from path, or from ~/.efivm/config.yaml when
// path is empty. A missing default config file is not an error. EFIVM_*
// environment variables override file values (EFIVM_DEFAULTS_MEMORY_MB).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("efivm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		configDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	// Try to read config file, but don't fail if the default one doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Defaults.MemoryMB < 1 {
		return ErrInvalidMemory
	}
	if c.Defaults.Cores < 1 || c.Defaults.Cores > MaxCores {
		return ErrInvalidCores
	}
	if c.Console.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.memory_mb", DefaultMemoryMB)
	v.SetDefault("defaults.cores", DefaultCores)
	v.SetDefault("defaults.name_prefix", DefaultNamePrefix)

	v.SetDefault("console.poll_interval", DefaultPollInterval)
	v.SetDefault("console.raw", true)
}

// ConfigDir returns the efivm configuration directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".efivm"), nil
}
