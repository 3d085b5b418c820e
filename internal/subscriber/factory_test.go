package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/utils"
)

func TestNewSubscriber(t *testing.T) {
	url := setupTestNATS(t)

	tests := []struct {
		name     string
		cfg      config.QueueConfig
		wantType interface{}
		wantErr  bool
	}{
		{"memory", config.QueueConfig{Type: "memory"}, &MemorySubscriber{}, false},
		{"default nats", config.QueueConfig{URL: url}, &NATSSubscriber{}, false},
		{"kafka from url", config.QueueConfig{Type: "kafka", URL: "k1:9092,k2:9092"}, &KafkaSubscriber{}, false},
		{"kafka without brokers", config.QueueConfig{Type: "kafka"}, nil, true},
		{"unsupported", config.QueueConfig{Type: "carrier-pigeon"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSubscriber(tt.cfg, testConfig())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = sub.Close() }()
			assert.IsType(t, tt.wantType, sub)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "insight-workers", cfg.ConsumerGroup)
	assert.Equal(t, "insight-1", cfg.InstanceID)
	assert.Positive(t, cfg.MaxRetries)
	assert.Positive(t, cfg.BatchSize)
	assert.NotNil(t, cfg.Logger)
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, utils.DefaultRetryBackoff, retryBackoff(1))
	assert.Equal(t, 2*utils.DefaultRetryBackoff, retryBackoff(2))
	assert.Equal(t, 4*utils.DefaultRetryBackoff, retryBackoff(3))
	assert.Equal(t, utils.MaxRetryBackoff, retryBackoff(50))
}
