package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP and gRPC servers
	ShutdownTimeout = 10 * time.Second
)

// Job Timeouts
const (
	// JobProcessTimeout bounds a single queued analysis job
	JobProcessTimeout = 30 * time.Second

	// JobPublishTimeout bounds publishing a job result
	JobPublishTimeout = 5 * time.Second
)

// Registry Timeouts
const (
	// RegistryLeaseTTL is the etcd lease TTL in seconds
	RegistryLeaseTTL = 10

	// RegistryDialTimeout is the timeout for connecting to etcd
	RegistryDialTimeout = 5 * time.Second

	// RegistryRequestTimeout is the timeout for a single etcd request
	RegistryRequestTimeout = 5 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration
	MaxRetryBackoff = 5 * time.Second
)

// =============================================================================
// Buffer and Batch Size Constants
// =============================================================================

const (
	// DefaultBatchSize is the default batch size for bulk operations
	DefaultBatchSize = 100

	// DefaultBufferSize is the default buffer size for channels
	DefaultBufferSize = 100

	// MaxSeriesLength caps the number of points accepted for one detection call
	MaxSeriesLength = 100000

	// MaxMetricsPerRequest caps the number of metrics accepted for one prediction call
	MaxMetricsPerRequest = 10000
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
