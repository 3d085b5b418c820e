package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INSIGHT_SERVER_HTTP_PORT
const EnvPrefix = "INSIGHT"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")            // Current directory
		v.AddConfigPath("./configs")    // Project configs directory
		v.AddConfigPath("./config")     // Alternative config directory
		v.AddConfigPath("/etc/insight") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// bindEnv enables INSIGHT_* overrides plus the bare PORT and DEBUG variables
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("server.http_port", EnvPrefix+"_SERVER_HTTP_PORT", "PORT"); err != nil {
		return fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("server.debug", EnvPrefix+"_SERVER_DEBUG", "DEBUG", "FLASK_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind env: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.debug", d.Server.Debug)

	// Forecast defaults
	v.SetDefault("forecast.history_points", d.Forecast.HistoryPoints)
	v.SetDefault("forecast.trend_range", d.Forecast.TrendRange)
	v.SetDefault("forecast.noise_stddev", d.Forecast.NoiseStdDev)
	v.SetDefault("forecast.floor_ratio", d.Forecast.FloorRatio)
	v.SetDefault("forecast.min_confidence", d.Forecast.MinConfidence)
	v.SetDefault("forecast.max_confidence", d.Forecast.MaxConfidence)
	v.SetDefault("forecast.timeframe", d.Forecast.Timeframe)
	v.SetDefault("forecast.seed", d.Forecast.Seed)

	// Anomaly defaults
	v.SetDefault("anomaly.methods", d.Anomaly.Methods)
	v.SetDefault("anomaly.zscore_threshold", d.Anomaly.ZScoreThreshold)
	v.SetDefault("anomaly.contamination", d.Anomaly.Contamination)
	v.SetDefault("anomaly.num_trees", d.Anomaly.NumTrees)
	v.SetDefault("anomaly.max_samples", d.Anomaly.MaxSamples)
	v.SetDefault("anomaly.iqr_multiplier", d.Anomaly.IQRMultiplier)
	v.SetDefault("anomaly.window_size", d.Anomaly.WindowSize)
	v.SetDefault("anomaly.window_threshold", d.Anomaly.WindowThreshold)
	v.SetDefault("anomaly.seed", d.Anomaly.Seed)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	// Jobs defaults
	v.SetDefault("jobs.enabled", d.Jobs.Enabled)
	v.SetDefault("jobs.request_subject", d.Jobs.RequestSubject)
	v.SetDefault("jobs.result_subject", d.Jobs.ResultSubject)
	v.SetDefault("jobs.compression", d.Jobs.Compression)
	v.SetDefault("jobs.consumer_group", d.Jobs.ConsumerGroup)
	v.SetDefault("jobs.max_retries", d.Jobs.MaxRetries)

	// Registry defaults
	v.SetDefault("registry.enabled", d.Registry.Enabled)
	v.SetDefault("registry.prefix", d.Registry.Prefix)
	v.SetDefault("registry.lease_ttl", d.Registry.LeaseTTL)

	// Etcd defaults
	v.SetDefault("etcd.endpoints", d.Etcd.Endpoints)
	v.SetDefault("etcd.dial_timeout", d.Etcd.DialTimeout.String())

	// Auth defaults
	v.SetDefault("auth.enabled", d.Auth.Enabled)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Debug {
		cfg.Logging.Level = "debug"
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8000,
			GRPCPort: 8001,
		},
		Forecast: ForecastConfig{
			HistoryPoints: 30,
			TrendRange:    0.02,
			NoiseStdDev:   0.05,
			FloorRatio:    0.5,
			MinConfidence: 0.6,
			MaxConfidence: 0.95,
			Timeframe:     "7 days",
		},
		Anomaly: AnomalyConfig{
			Methods:         []string{"zscore", "isolation_forest"},
			ZScoreThreshold: 2.5,
			Contamination:   0.1,
			NumTrees:        100,
			MaxSamples:      256,
			IQRMultiplier:   1.5,
			WindowSize:      10,
			WindowThreshold: 3.0,
		},
		Queue: QueueConfig{
			Type:         "nats",
			URL:          "nats://localhost:4222",
			RedisStream:  "insight",
			RedisGroup:   "insight-group",
			KafkaGroupID: "insight-workers",
		},
		Jobs: JobsConfig{
			Enabled:        false,
			RequestSubject: "insight.jobs.request",
			ResultSubject:  "insight.jobs.result",
			Compression:    "none",
			ConsumerGroup:  "insight-workers",
			MaxRetries:     3,
		},
		Registry: RegistryConfig{
			Enabled:  false,
			Prefix:   "/insight/instances/",
			LeaseTTL: 10,
		},
		Etcd: EtcdConfig{
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
