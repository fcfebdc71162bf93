// Package config loads runtime settings from a config file, .env and
// TALENTOS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"yashubustudio/talentos/profiler"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TALENTOS_SERVER_ADDR.
	EnvPrefix = "TALENTOS"
	// DefaultName is the config file looked up in the working directory.
	DefaultName = "talentos"
)

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	MaxBodyBytes int64         `mapstructure:"maxBodyBytes"`
}

// StoreConfig selects the candidate store. An empty driver disables it.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// Settings is the full application configuration. Pipeline settings sit at
// the top level of the file.
type Settings struct {
	profiler.Config `mapstructure:",squash"`
	Server          ServerConfig              `mapstructure:"server"`
	Store           StoreConfig               `mapstructure:"store"`
	Log             LogConfig                 `mapstructure:"log"`
	Columns         profiler.ColumnCandidates `mapstructure:"columns"`
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"debug":        "log.debug",
	"json":         "log.json",
	"addr":         "server.addr",
	"store-driver": "store.driver",
	"store-dsn":    "store.dsn",
	"vocabulary":   "vocabularyPath",
	"backend":      "embedder.backend",
	"vectors":      "embedder.vectorsPath",
	"threshold":    "similarityThreshold",
	"policy":       "scoring.policy",
}

// Load reads settings from path (or ./talentos.{yaml,json} when path is empty),
// then applies .env, environment variables and any changed flags.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	_ = godotenv.Load()

	v := newViper()
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := rejectZeroThresholds(s.Config); err != nil {
		return nil, err
	}
	s.Config.ApplyDefaults()
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// rejectZeroThresholds fails on thresholds set to 0. Every key has a default,
// so a zero here was written by the user, and ApplyDefaults would otherwise
// replace it silently.
func rejectZeroThresholds(c profiler.Config) error {
	thresholds := []struct {
		key   string
		value float64
	}{
		{"similarityThreshold", c.SimilarityThreshold},
		{"scoring.activationThreshold", c.Scoring.ActivationThreshold},
		{"scoring.tokenConceptThreshold", c.Scoring.TokenConceptThreshold},
		{"scoring.chunkConceptThreshold", c.Scoring.ChunkConceptThreshold},
	}
	for _, t := range thresholds {
		if t.value == 0 {
			return fmt.Errorf("%s must be greater than 0; remove the setting to use the default", t.key)
		}
	}
	return nil
}

// WriteDefaults writes the default settings to path; the format follows the
// file extension (.yaml, .yml or .json).
func WriteDefaults(path string) error {
	v := newViper()
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	var cfg profiler.Config
	cfg.ApplyDefaults()

	v.SetDefault("similarityThreshold", cfg.SimilarityThreshold)
	v.SetDefault("vocabularyPath", "")
	v.SetDefault("scoring.policy", string(cfg.Scoring.Policy))
	v.SetDefault("scoring.activationThreshold", cfg.Scoring.ActivationThreshold)
	v.SetDefault("scoring.tokenConceptThreshold", cfg.Scoring.TokenConceptThreshold)
	v.SetDefault("scoring.chunkConceptThreshold", cfg.Scoring.ChunkConceptThreshold)
	composites := make([]map[string]any, 0, len(cfg.Scoring.Composites))
	for _, rule := range cfg.Scoring.Composites {
		composites = append(composites, map[string]any{"name": rule.Name, "requires": rule.Requires})
	}
	v.SetDefault("scoring.composites", composites)

	v.SetDefault("embedder.backend", cfg.Embedder.Backend)
	v.SetDefault("embedder.ortDll", "")
	v.SetDefault("embedder.modelPath", "")
	v.SetDefault("embedder.tokenizerPath", "")
	v.SetDefault("embedder.maxSeqLen", cfg.Embedder.MaxSeqLen)
	v.SetDefault("embedder.cacheDir", "")
	v.SetDefault("embedder.modelId", "")
	v.SetDefault("embedder.vectorsPath", "")
	v.SetDefault("embedder.cacheEntries", cfg.Embedder.CacheEntries)
	v.SetDefault("embedder.cacheTTL", cfg.Embedder.CacheTTL.String())

	columns := profiler.DefaultColumnCandidates()
	v.SetDefault("columns.text", columns.Text)
	v.SetDefault("columns.index", columns.Index)
	v.SetDefault("columns.name", columns.Name)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.maxBodyBytes", int64(1<<20))

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}
