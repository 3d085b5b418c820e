package models

import "time"

// Instance status values
const (
	InstanceStatusActive   = "active"
	InstanceStatusDraining = "draining"
)

// InstanceInfo is the record an insight instance publishes to the registry
type InstanceInfo struct {
	ID           string    `json:"id"`
	HTTPAddress  string    `json:"http_address"`
	GRPCAddress  string    `json:"grpc_address,omitempty"`
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Capabilities []string  `json:"capabilities"` // e.g. forecast, detect
	Jobs         bool      `json:"jobs"`         // consumes queued analysis jobs
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
