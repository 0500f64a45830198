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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Clean   CleanConfig   `yaml:"clean" mapstructure:"clean"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Lags    LagsConfig    `yaml:"lags" mapstructure:"lags"`
	Tree    TreeConfig    `yaml:"tree" mapstructure:"tree"`
	Weather WeatherConfig `yaml:"weather" mapstructure:"weather"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CleanConfig configures the cleaning and filtering stage.
type CleanConfig struct {
	MinLongitude float64 `yaml:"min_longitude" mapstructure:"min_longitude"`
	YearFrom     int     `yaml:"year_from" mapstructure:"year_from"`
	YearTo       int     `yaml:"year_to" mapstructure:"year_to"`
}

// ClusterConfig configures DBSCAN hotspot detection.
type ClusterConfig struct {
	EpsMeters float64 `yaml:"eps_meters" mapstructure:"eps_meters"`
	MinPts    int     `yaml:"min_pts" mapstructure:"min_pts"`
}

// LagsConfig configures lag-feature construction.
type LagsConfig struct {
	Offsets    []int `yaml:"offsets" mapstructure:"offsets"`
	DailyReset bool  `yaml:"daily_reset" mapstructure:"daily_reset"`
}

// TreeConfig configures per-group tree fitting.
type TreeConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
	MinLeaf  int `yaml:"min_leaf" mapstructure:"min_leaf"`
	Workers  int `yaml:"workers" mapstructure:"workers"`
}

// WeatherConfig configures the hourly weather archive client.
type WeatherConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Latitude          float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude         float64 `yaml:"longitude" mapstructure:"longitude"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ReportConfig configures the rendered artifacts.
type ReportConfig struct {
	OutDir    string `yaml:"out_dir" mapstructure:"out_dir"`
	BarWidth  int    `yaml:"bar_width" mapstructure:"bar_width"`
	MapCenter string `yaml:"map_center" mapstructure:"map_center"`
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
	v.SetEnvPrefix("ACCIDENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "accidents.db")
	v.SetDefault("clean.min_longitude", 10.0)
	v.SetDefault("clean.year_from", 2022)
	v.SetDefault("clean.year_to", 2024)
	v.SetDefault("cluster.eps_meters", 200.0)
	v.SetDefault("cluster.min_pts", 10)
	v.SetDefault("lags.offsets", []int{1, 2, 3, 4, 24, 168})
	v.SetDefault("lags.daily_reset", false)
	v.SetDefault("tree.max_depth", 5)
	v.SetDefault("tree.min_leaf", 20)
	v.SetDefault("tree.workers", 4)
	v.SetDefault("weather.base_url", "https://archive-api.open-meteo.com/v1/archive")
	v.SetDefault("weather.latitude", 59.94)
	v.SetDefault("weather.longitude", 30.31)
	v.SetDefault("weather.requests_per_second", 1.0)
	v.SetDefault("report.out_dir", "out")
	v.SetDefault("report.bar_width", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
