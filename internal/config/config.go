package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COLTABLE_DATA_DIR
const EnvPrefix = "COLTABLE"

// Config holds the process settings shared by every command
type Config struct {
	DataDir       string `mapstructure:"data_dir"`
	Debug         bool   `mapstructure:"debug"`
	LogLevel      string `mapstructure:"log_level"`
	SeqURL        string `mapstructure:"seq_url"`
	PageSize      int    `mapstructure:"page_size"`
	CacheSize     int    `mapstructure:"cache_size"`
	Listen        string `mapstructure:"listen"`
	MetricsListen string `mapstructure:"metrics_listen"`
	Journal       bool   `mapstructure:"journal"`
}

// New returns a viper instance with defaults and environment lookup wired
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", "")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("seq_url", "")
	v.SetDefault("page_size", 20)
	v.SetDefault("cache_size", 16)
	v.SetDefault("listen", ":4444")
	v.SetDefault("metrics_listen", "")
	v.SetDefault("journal", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs to the config key of the same name,
// with dashes mapped to underscores.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads the optional config file and decodes the merged settings.
// An empty path searches for coltable.yaml in the working directory; a
// missing file is not an error in that case.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("coltable")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	return nil
}
