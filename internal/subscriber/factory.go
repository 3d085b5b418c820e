package subscriber

import (
	"fmt"
	"strings"

	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/utils"
)

// NewSubscriber creates a new Subscriber based on the queue configuration
func NewSubscriber(cfg config.QueueConfig, subCfg Config) (Subscriber, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))

	// Default to NATS if not specified
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return NewNATSSubscriber(cfg.URL, cfg.Username, cfg.Password, subCfg)
	case utils.QueueTypeRedis:
		return NewRedisSubscriber(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Consumer: cfg.RedisConsumer,
		}, subCfg)
	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return NewKafkaSubscriber(brokers, subCfg)
	case utils.QueueTypeMemory:
		return NewMemorySubscriber(subCfg), nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", queueType)
	}
}
