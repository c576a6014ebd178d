package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/ratelimit"
	"github.com/dharmasatrya/flightplanner/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig                 `yaml:"log" mapstructure:"log"`
	Server    ServerConfig              `yaml:"server" mapstructure:"server"`
	Store     store.Config              `yaml:"store" mapstructure:"store"`
	Planner   PlannerConfig             `yaml:"planner" mapstructure:"planner"`
	Providers []providers.Config        `yaml:"providers" mapstructure:"providers"`
	RateLimit ratelimit.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port string `yaml:"port" mapstructure:"port"`
}

// PlannerConfig holds run-wide planner settings. A plan document may
// override the concurrency.
type PlannerConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", "8080")
	v.SetDefault("store.driver", store.DriverNone)
	v.SetDefault("store.dir", "results")
	v.SetDefault("store.redis.host", "localhost")
	v.SetDefault("store.redis.port", "6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", "24h")
	v.SetDefault("planner.concurrency", 4)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst_size", 20)

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
