package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/firmlink/internal/match"
	"github.com/sells-group/firmlink/internal/store"
	"github.com/sells-group/firmlink/internal/validate"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig     `yaml:"store" mapstructure:"store"`
	Match    match.Config    `yaml:"match" mapstructure:"match"`
	Validate validate.Config `yaml:"validate" mapstructure:"validate"`
	Server   ServerConfig    `yaml:"server" mapstructure:"server"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the read-only report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIRMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "firmlink.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("match.accept_threshold", 0.94)
	v.SetDefault("match.fuzzy_threshold", 0.85)
	v.SetDefault("match.min_ticker_len", 4)
	v.SetDefault("match.ticker_denylist", []string{"CORP", "BANK", "GOLD", "TECH", "LIFE", "CARE", "OPEN"})
	v.SetDefault("match.min_contain_len", 8)
	v.SetDefault("match.contain_stoplist", []string{
		"group", "international", "holdings", "systems", "technologies",
		"solutions", "industries", "enterprises", "services", "global",
	})
	v.SetDefault("match.fanout_multiple", 20.0)
	v.SetDefault("match.min_fanout", 50)
	v.SetDefault("match.workers", 0)
	v.SetDefault("validate.sample_size", 200)
	v.SetDefault("validate.seed", 1)
	v.SetDefault("validate.bands", []float64{0.95, 0.97, 1.0})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
