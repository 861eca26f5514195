package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Reviews   ReviewsConfig   `yaml:"reviews" mapstructure:"reviews"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// GoogleConfig holds Google Maps Platform settings shared by the Places and
// Geocoding clients.
type GoogleConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxPages          int     `yaml:"max_pages" mapstructure:"max_pages"`
	PageTokenWaitMS   int     `yaml:"page_token_wait_ms" mapstructure:"page_token_wait_ms"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// DiscoveryConfig configures the tile grid and search fan-out.
type DiscoveryConfig struct {
	TileRadiusMeters float64 `yaml:"tile_radius_meters" mapstructure:"tile_radius_meters"`
	TileConcurrency  int     `yaml:"tile_concurrency" mapstructure:"tile_concurrency"`
}

// ReviewsConfig configures place detail collection.
type ReviewsConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// AnalyticsConfig configures aggregation thresholds.
type AnalyticsConfig struct {
	HighNegativeShare float64 `yaml:"high_negative_share" mapstructure:"high_negative_share"`
	HighNegativeFloor int     `yaml:"high_negative_floor" mapstructure:"high_negative_floor"`
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
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "insights.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("google.requests_per_second", 10)
	v.SetDefault("google.max_pages", 3)
	v.SetDefault("google.page_token_wait_ms", 2200)
	v.SetDefault("google.max_retries", 3)
	v.SetDefault("discovery.tile_radius_meters", 40000)
	v.SetDefault("discovery.tile_concurrency", 4)
	v.SetDefault("reviews.concurrency", 8)
	v.SetDefault("analytics.high_negative_share", 0.30)
	v.SetDefault("analytics.high_negative_floor", 5)

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
