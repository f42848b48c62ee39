package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/tweetreview/internal/scheduler"
	"github.com/valpere/tweetreview/internal/translator"
	"github.com/valpere/tweetreview/internal/twitter"
)

// EnvPrefix prefixes every environment variable, e.g. TWEETREVIEW_LOG_LEVEL.
const EnvPrefix = "TWEETREVIEW"

// Config is the root application configuration.
type Config struct {
	DB        string           `mapstructure:"db"`
	Log       LogConfig        `mapstructure:"log"`
	Twitter   twitter.Config   `mapstructure:"twitter"`
	Translate TranslateConfig  `mapstructure:"translate"`
	Scheduler scheduler.Config `mapstructure:"scheduler"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TranslateConfig selects the translation provider. An empty or "none"
// provider disables translation.
type TranslateConfig struct {
	Provider   string                   `mapstructure:"provider"`
	TargetLang string                   `mapstructure:"target_lang"`
	Timeout    time.Duration            `mapstructure:"timeout"`
	Service    translator.ServiceConfig `mapstructure:"service"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", "./data/tweetreview.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("twitter.base_url", twitter.DefaultBaseURL)
	v.SetDefault("twitter.bearer_token", "")
	v.SetDefault("twitter.timeout", 30*time.Second)
	v.SetDefault("translate.provider", "none")
	v.SetDefault("translate.target_lang", "")
	v.SetDefault("translate.timeout", time.Duration(0))
	v.SetDefault("translate.service.credentials", "")
	v.SetDefault("translate.service.api_key", "")
	v.SetDefault("translate.service.base_url", "")
	v.SetDefault("translate.service.timeout", 30*time.Second)
	v.SetDefault("scheduler.sample_size", scheduler.DefaultSampleSize)
	v.SetDefault("scheduler.max_fetch_failures", scheduler.DefaultMaxFetchFailures)
}

// Load reads configuration into a Config.
// Priority: flags bound on v > ENV > config file > defaults.
// An explicit path that does not exist is an error; without a path,
// ./tweetreview.yaml is read when present.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tweetreview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate performs business-rule validation on the loaded configuration.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	if c.Scheduler.SampleSize <= 0 {
		return fmt.Errorf("scheduler.sample_size must be > 0 (got %d)", c.Scheduler.SampleSize)
	}
	if c.Scheduler.MaxFetchFailures <= 0 {
		return fmt.Errorf("scheduler.max_fetch_failures must be > 0 (got %d)", c.Scheduler.MaxFetchFailures)
	}

	if err := c.Translate.validate(); err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	return nil
}

// Enabled reports whether a translation provider is configured.
func (t *TranslateConfig) Enabled() bool {
	return t.Provider != "" && t.Provider != "none"
}

func (t *TranslateConfig) validate() error {
	switch t.Provider {
	case "", "none", "google", "systran":
	default:
		return fmt.Errorf("unknown provider %q", t.Provider)
	}
	if t.TargetLang == "" {
		return nil
	}
	tag, err := language.Parse(t.TargetLang)
	if err != nil {
		return fmt.Errorf("target_lang %q: %w", t.TargetLang, err)
	}
	t.TargetLang = tag.String()
	return nil
}
