package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"objcmeta/internal/export"
)

// DirName is the per-project state directory holding config, cache and logs.
const DirName = ".objcmeta"

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the objcmeta configuration (.objcmeta/config.json)
type Config struct {
	Version int           `json:"version" mapstructure:"version"`
	Parser  ParserConfig  `json:"parser" mapstructure:"parser"`
	Output  OutputConfig  `json:"output" mapstructure:"output"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ParserConfig selects and configures the header provider.
type ParserConfig struct {
	// Provider is "auto", "cheader" or "snapshot". Auto picks snapshot for
	// .yaml/.yml/.json inputs and cheader otherwise.
	Provider       string   `json:"provider" mapstructure:"provider"`
	Args           []string `json:"args" mapstructure:"args"`
	IncludeDirs    []string `json:"includeDirs" mapstructure:"includeDirs"`
	DataModel      string   `json:"dataModel" mapstructure:"dataModel"`
	FollowIncludes bool     `json:"followIncludes" mapstructure:"followIncludes"`
}

// OutputConfig controls where documents are written.
type OutputConfig struct {
	Path   string `json:"path" mapstructure:"path"`
	Format string `json:"format" mapstructure:"format"`
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	TTLSeconds int  `json:"ttlSeconds" mapstructure:"ttlSeconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"` // "human" or "json"
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"` // e.g. "10MB"
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Parser: ParserConfig{
			Provider:       "auto",
			Args:           []string{},
			IncludeDirs:    []string{},
			DataModel:      "LP64",
			FollowIncludes: true,
		},
		Output: OutputConfig{
			Format: string(export.FormatJSON),
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 7 * 24 * 60 * 60,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxBackups: 3,
		},
	}
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, DirName, "config.json")
}

// LoadConfig loads configuration from .objcmeta/config.json under root.
// Values missing from the file keep their defaults, and OBJCMETA_<SECTION>_<KEY>
// environment variables override both.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, DirName))
	v.SetEnvPrefix("OBJCMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("parser.provider", cfg.Parser.Provider)
	v.SetDefault("parser.args", cfg.Parser.Args)
	v.SetDefault("parser.includeDirs", cfg.Parser.IncludeDirs)
	v.SetDefault("parser.dataModel", cfg.Parser.DataModel)
	v.SetDefault("parser.followIncludes", cfg.Parser.FollowIncludes)
	v.SetDefault("output.path", cfg.Output.Path)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttlSeconds", cfg.Cache.TTLSeconds)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.maxSize", cfg.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", cfg.Logging.MaxBackups)
}

// Save writes the configuration to .objcmeta/config.json under root.
func (c *Config) Save(root string) error {
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d, expected %d", c.Version, CurrentVersion),
		}
	}

	switch c.Parser.Provider {
	case "", "auto", "cheader", "snapshot":
	default:
		return &ConfigError{
			Field:   "parser.provider",
			Message: fmt.Sprintf("unknown provider %q", c.Parser.Provider),
		}
	}

	switch c.Parser.DataModel {
	case "", "LP64", "ILP32":
	default:
		return &ConfigError{
			Field:   "parser.dataModel",
			Message: fmt.Sprintf("unknown data model %q (want LP64 or ILP32)", c.Parser.DataModel),
		}
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return &ConfigError{Field: "output.format", Message: err.Error()}
	}

	if c.Cache.TTLSeconds < 0 {
		return &ConfigError{Field: "cache.ttlSeconds", Message: "must not be negative"}
	}

	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q (want human or json)", c.Logging.Format),
		}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
