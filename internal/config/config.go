package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Registry RegistryConfig `mapstructure:"registry"`
	Etcd     EtcdConfig     `mapstructure:"etcd"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
	GRPCPort int    `mapstructure:"grpc_port"` // gRPC health server port, 0 disables it
	Debug    bool   `mapstructure:"debug"`     // Debug mode forces debug logging
}

// ForecastConfig tunes the metric forecaster
type ForecastConfig struct {
	HistoryPoints int     `mapstructure:"history_points"` // Length of the synthesized history (default: 30)
	TrendRange    float64 `mapstructure:"trend_range"`    // Max absolute relative trend per step (default: 0.02)
	NoiseStdDev   float64 `mapstructure:"noise_stddev"`   // Relative noise std deviation (default: 0.05)
	FloorRatio    float64 `mapstructure:"floor_ratio"`    // Prediction floor as a ratio of the current value (default: 0.5)
	MinConfidence float64 `mapstructure:"min_confidence"`
	MaxConfidence float64 `mapstructure:"max_confidence"`
	Timeframe     string  `mapstructure:"timeframe"`
	Seed          uint64  `mapstructure:"seed"` // 0 seeds from the runtime source
}

// AnomalyConfig tunes the outlier detector
type AnomalyConfig struct {
	Methods         []string `mapstructure:"methods"` // zscore, isolation_forest, iqr, moving_avg
	ZScoreThreshold float64  `mapstructure:"zscore_threshold"`
	Contamination   float64  `mapstructure:"contamination"`
	NumTrees        int      `mapstructure:"num_trees"`
	MaxSamples      int      `mapstructure:"max_samples"`
	IQRMultiplier   float64  `mapstructure:"iqr_multiplier"`
	WindowSize      int      `mapstructure:"window_size"`
	WindowThreshold float64  `mapstructure:"window_threshold"`
	Seed            uint64   `mapstructure:"seed"` // 0 draws a fresh seed per call
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "insight")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "insight-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// JobsConfig configures queued analysis jobs
type JobsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RequestSubject string `mapstructure:"request_subject"`
	ResultSubject  string `mapstructure:"result_subject"`
	Compression    string `mapstructure:"compression"` // none, snappy
	ConsumerGroup  string `mapstructure:"consumer_group"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

// RegistryConfig configures instance registration in etcd
type RegistryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	InstanceID string `mapstructure:"instance_id"` // Defaults to the hostname
	Prefix     string `mapstructure:"prefix"`
	LeaseTTL   int64  `mapstructure:"lease_ttl"` // Seconds
}

// EtcdConfig represents etcd configuration
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Anomaly.Validate(); err != nil {
		return fmt.Errorf("anomaly config: %w", err)
	}

	if c.Jobs.Enabled {
		if err := c.Queue.Validate(); err != nil {
			return fmt.Errorf("queue config: %w", err)
		}
		if err := c.Jobs.Validate(); err != nil {
			return fmt.Errorf("jobs config: %w", err)
		}
	}

	if c.Registry.Enabled {
		if err := c.Registry.Validate(); err != nil {
			return fmt.Errorf("registry config: %w", err)
		}
		if err := c.Etcd.Validate(); err != nil {
			return fmt.Errorf("etcd config: %w", err)
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}

	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("http_port and grpc_port cannot be the same")
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.HistoryPoints < 2 {
		return fmt.Errorf("forecast.history_points must be at least 2")
	}

	if c.TrendRange <= 0 {
		return fmt.Errorf("forecast.trend_range must be positive")
	}

	if c.NoiseStdDev <= 0 {
		return fmt.Errorf("forecast.noise_stddev must be positive")
	}

	if c.FloorRatio <= 0 {
		return fmt.Errorf("forecast.floor_ratio must be positive")
	}

	if c.MinConfidence < 0 || c.MaxConfidence > 1 || c.MinConfidence > c.MaxConfidence {
		return fmt.Errorf("forecast confidence range must satisfy 0 <= min_confidence <= max_confidence <= 1")
	}

	return nil
}

// Validate validates anomaly configuration
func (c *AnomalyConfig) Validate() error {
	if len(c.Methods) == 0 {
		return fmt.Errorf("anomaly.methods is required")
	}

	if c.ZScoreThreshold <= 0 {
		return fmt.Errorf("anomaly.zscore_threshold must be positive")
	}

	if c.Contamination <= 0 || c.Contamination > 0.5 {
		return fmt.Errorf("anomaly.contamination must be in (0, 0.5]")
	}

	if c.NumTrees < 1 {
		return fmt.Errorf("anomaly.num_trees must be at least 1")
	}

	if c.MaxSamples < 2 {
		return fmt.Errorf("anomaly.max_samples must be at least 2")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 && c.URL == "" {
		return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
	}

	return nil
}

// Validate validates jobs configuration
func (c *JobsConfig) Validate() error {
	if c.RequestSubject == "" {
		return fmt.Errorf("jobs.request_subject is required")
	}

	if c.ResultSubject == "" {
		return fmt.Errorf("jobs.result_subject is required")
	}

	if c.RequestSubject == c.ResultSubject {
		return fmt.Errorf("jobs.request_subject and jobs.result_subject cannot be the same")
	}

	if c.Compression != "none" && c.Compression != "snappy" {
		return fmt.Errorf("jobs.compression must be 'none' or 'snappy'")
	}

	return nil
}

// Validate validates registry configuration
func (c *RegistryConfig) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("registry.prefix is required")
	}

	if c.LeaseTTL < 1 {
		return fmt.Errorf("registry.lease_ttl must be at least 1")
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
