package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Stats   StatsConfig   `mapstructure:"stats"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type EngineConfig struct {
	// Workers bounds concurrent statistics computations; 0 means GOMAXPROCS
	Workers      int   `mapstructure:"workers" validate:"gte=0"`
	CSVChunkSize int   `mapstructure:"csv_chunk_size" validate:"gt=0"`
	PreviewRows  int64 `mapstructure:"preview_rows" validate:"gt=0"`
}

type StatsConfig struct {
	TopK                   int `mapstructure:"top_k" validate:"gt=0"`
	TopCapacity            int `mapstructure:"top_capacity" validate:"gt=0,gtefield=TopK"`
	HistogramBuckets       int `mapstructure:"histogram_buckets" validate:"gt=0"`
	ExactQuantileThreshold int `mapstructure:"exact_quantile_threshold" validate:"gt=0,gtefield=ReservoirSize"`
	ReservoirSize          int `mapstructure:"reservoir_size" validate:"gt=0"`
	DistinctExactThreshold int `mapstructure:"distinct_exact_threshold" validate:"gt=0"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvPrefix("parqscope")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and environment
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Engine defaults
	viper.SetDefault("engine.workers", 0)
	viper.SetDefault("engine.csv_chunk_size", 10000)
	viper.SetDefault("engine.preview_rows", 50)

	// Stats defaults
	viper.SetDefault("stats.top_k", 10)
	viper.SetDefault("stats.top_capacity", 100)
	viper.SetDefault("stats.histogram_buckets", 10)
	viper.SetDefault("stats.exact_quantile_threshold", 100000)
	viper.SetDefault("stats.reservoir_size", 10000)
	viper.SetDefault("stats.distinct_exact_threshold", 50000)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "parqscope.log")
}
