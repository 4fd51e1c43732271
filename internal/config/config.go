// Package config loads the settings shared by the arcindex command line tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/javi11/arcindex"
)

// EnvPrefix is prepended to every environment override, e.g. ARCINDEX_LOG_LEVEL.
const EnvPrefix = "ARCINDEX"

type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan"`
	Sort    SortConfig    `mapstructure:"sort" yaml:"sort"`
	Charset CharsetConfig `mapstructure:"charset" yaml:"charset"`
	Images  ImagesConfig  `mapstructure:"images" yaml:"images"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`

	Workers int `mapstructure:"workers" yaml:"workers"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type ScanConfig struct {
	// Full searches the whole buffer for an archive signature.
	Full bool `mapstructure:"full" yaml:"full"`
}

type SortConfig struct {
	Natural bool `mapstructure:"natural" yaml:"natural"`
}

type CharsetConfig struct {
	// Legacy is a WHATWG encoding label tried for non UTF-8 RAR names.
	Legacy string `mapstructure:"legacy" yaml:"legacy"`
}

type ImagesConfig struct {
	Only bool `mapstructure:"only" yaml:"only"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"full-scan":    "scan.full",
	"natural-sort": "sort.natural",
	"charset":      "charset.legacy",
	"workers":      "workers",
	"images-only":  "images.only",
	"output":       "output.dir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("scan.full", true)
	v.SetDefault("sort.natural", true)
	v.SetDefault("charset.legacy", "windows-1252")
	v.SetDefault("workers", 0)
	v.SetDefault("images.only", false)
	v.SetDefault("output.dir", ".")
}

// Load resolves the configuration from, highest first: flags that were set
// on the command line, ARCINDEX_* environment variables, the config file and
// the defaults. An empty path looks for arcindex.{yaml,toml,ini} in the
// working directory and in $HOME/.config/arcindex; a missing file is not an
// error unless path was given. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("arcindex")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "arcindex"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := BindFlags(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BindFlags binds the known flags present in flags to their keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.LegacyCharset(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	return nil
}

// SlogLevel parses log.level (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// LegacyCharset resolves charset.legacy. An empty label keeps the library
// default.
func (c *Config) LegacyCharset() (encoding.Encoding, error) {
	if c.Charset.Legacy == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(c.Charset.Legacy)
	if err != nil {
		return nil, fmt.Errorf("charset.legacy %q: %w", c.Charset.Legacy, err)
	}
	return enc, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Options turns the configuration into parser options.
func (c *Config) Options(logger *slog.Logger) []func(*arcindex.Options) {
	opts := []func(*arcindex.Options){
		arcindex.WithSignatureScan(c.Scan.Full),
		arcindex.WithSort(c.Sort.Natural),
	}
	if logger != nil {
		opts = append(opts, arcindex.WithLogger(logger))
	}
	if enc, err := c.LegacyCharset(); err == nil && enc != nil {
		opts = append(opts, arcindex.WithLegacyCharset(enc))
	}
	return opts
}
