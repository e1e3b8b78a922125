package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/dmgpack/internal/diskimage"
	"github.com/oshokin/dmgpack/internal/logger"
	"github.com/oshokin/dmgpack/internal/product"
)

// Config holds packaging settings shared by the CLI commands.
type Config struct {
	// Tool is the disk image utility executable.
	Tool string `mapstructure:"tool" yaml:"tool"`
	// Filesystem is the staging image filesystem.
	Filesystem string `mapstructure:"filesystem" yaml:"filesystem"`
	// FilesystemArgs are extra newfs options for the staging image.
	FilesystemArgs string `mapstructure:"filesystem-args" yaml:"filesystem-args"`
	// CompressionLevel is the zlib level of the final image.
	CompressionLevel int `mapstructure:"compression-level" yaml:"compression-level"`
	// VolumeName overrides the label taken from product metadata.
	VolumeName string `mapstructure:"volume-name" yaml:"volume-name,omitempty"`
	// ProductFile is the product metadata file the volume label is read from.
	ProductFile string `mapstructure:"product-file" yaml:"product-file"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `mapstructure:"log-level" yaml:"log-level"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the working directory.
	DefaultConfigFilename = "dmgpack.yaml"

	// EnvPrefix prefixes environment overrides, e.g. DMGPACK_VOLUME_NAME.
	EnvPrefix = "DMGPACK"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the mode of written settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errCompressionLevel is returned for a zlib level outside 1..9.
	errCompressionLevel = errors.New("compression level must be between 1 and 9")
	// errUnknownLogLevel is returned for an unparseable log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Tool:             diskimage.DefaultBinary,
		Filesystem:       diskimage.DefaultFilesystem,
		FilesystemArgs:   diskimage.DefaultFilesystemArgs,
		CompressionLevel: diskimage.MaxCompressionLevel,
		ProductFile:      product.DefaultFilename,
		LogLevel:         DefaultLogLevel,
	}
}

// Load layers defaults, the settings file at path, DMGPACK_* environment
// variables and changed flags, in increasing priority. A missing file is an
// error only when path is not the default one.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("tool", defaults.Tool)
	v.SetDefault("filesystem", defaults.Filesystem)
	v.SetDefault("filesystem-args", defaults.FilesystemArgs)
	v.SetDefault("compression-level", defaults.CompressionLevel)
	v.SetDefault("volume-name", defaults.VolumeName)
	v.SetDefault("product-file", defaults.ProductFile)
	v.SetDefault("log-level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, path); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readFile merges the YAML settings file into v.
func readFile(v *viper.Viper, path string) error {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	path = filepath.Clean(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}

	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks cfg and fills blank fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults := Default()

	if strings.TrimSpace(cfg.Tool) == "" {
		cfg.Tool = defaults.Tool
	}

	if strings.TrimSpace(cfg.Filesystem) == "" {
		cfg.Filesystem = defaults.Filesystem
	}

	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = defaults.CompressionLevel
	}

	if cfg.CompressionLevel < 1 || cfg.CompressionLevel > diskimage.MaxCompressionLevel {
		return fmt.Errorf("%w: %d", errCompressionLevel, cfg.CompressionLevel)
	}

	if cfg.ProductFile == "" {
		cfg.ProductFile = defaults.ProductFile
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	return nil
}
