// Package jobs runs forecasts and outlier detection submitted through the
// message queue and publishes their results.
package jobs

import (
	"time"

	"github.com/soltixdb/insight/internal/analytics/anomaly"
	"github.com/soltixdb/insight/internal/analytics/forecast"
	"github.com/soltixdb/insight/internal/models"
)

// Kind selects the analysis a job runs
type Kind string

const (
	KindPredict Kind = "predict"
	KindDetect  Kind = "detect"
)

// Error codes reported in JobResult.Error besides the service codes
const (
	CodeInvalidJob    = "INVALID_JOB"
	CodeInternalError = "INTERNAL_ERROR"
)

// Job is a queued analysis request. Metrics carries the /predict body for
// predict jobs, Data the /detect-anomalies series for detect jobs.
type Job struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	Metrics []interface{} `json:"metrics,omitempty"`
	Data    []interface{} `json:"data,omitempty"`
}

// JobResult is published on the result subject once a job finishes.
// Exactly one of Predictions, Anomalies or Error is meaningful for a given Kind.
type JobResult struct {
	JobID       string                `json:"jobId"`
	Kind        Kind                  `json:"kind"`
	Predictions []forecast.Prediction `json:"predictions,omitempty"`
	Anomalies   []anomaly.Anomaly     `json:"anomalies,omitempty"`
	Error       *models.ErrorDetail   `json:"error,omitempty"`
	InstanceID  string                `json:"instanceId,omitempty"`
	CompletedAt time.Time             `json:"completedAt"`
}

// Failed reports whether the job produced an error
func (r JobResult) Failed() bool {
	return r.Error != nil
}
