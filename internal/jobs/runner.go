package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
	"github.com/soltixdb/insight/internal/queue"
	"github.com/soltixdb/insight/internal/services"
	"github.com/soltixdb/insight/internal/subscriber"
	"github.com/soltixdb/insight/internal/utils"
)

// RunnerConfig configures a job Runner
type RunnerConfig struct {
	RequestSubject string
	ResultSubject  string
	InstanceID     string
	ProcessTimeout time.Duration // Per-job computation bound (default: utils.JobProcessTimeout)
	PublishTimeout time.Duration // Result publish bound (default: utils.JobPublishTimeout)
}

// Stats counts jobs handled by a Runner
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Runner consumes jobs from the request subject, runs them through the
// analysis services and publishes a JobResult for each one
type Runner struct {
	cfg         RunnerConfig
	subscriber  subscriber.Subscriber
	publisher   queue.Publisher
	codec       *Codec
	predictions *services.PredictionService
	anomalies   *services.AnomalyService
	logger      *logging.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// NewRunner creates a job runner
func NewRunner(
	cfg RunnerConfig,
	sub subscriber.Subscriber,
	pub queue.Publisher,
	codec *Codec,
	predictions *services.PredictionService,
	anomalies *services.AnomalyService,
	logger *logging.Logger,
) (*Runner, error) {
	if sub == nil || pub == nil {
		return nil, fmt.Errorf("subscriber and publisher are required")
	}
	if codec == nil {
		return nil, fmt.Errorf("codec is nil")
	}
	if cfg.RequestSubject == "" || cfg.ResultSubject == "" {
		return nil, fmt.Errorf("request and result subjects are required")
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = utils.JobProcessTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = utils.JobPublishTimeout
	}
	if logger == nil {
		logger = logging.Global()
	}

	return &Runner{
		cfg:         cfg,
		subscriber:  sub,
		publisher:   pub,
		codec:       codec,
		predictions: predictions,
		anomalies:   anomalies,
		logger:      logger.Component("jobs"),
	}, nil
}

// Start subscribes to the request subject. Jobs are handled until ctx is
// cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.subscriber.Subscribe(ctx, r.cfg.RequestSubject, r.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.cfg.RequestSubject, err)
	}
	r.logger.Info("Job runner started",
		"request_subject", r.cfg.RequestSubject,
		"result_subject", r.cfg.ResultSubject,
		"compression", r.codec.Algorithm().String())
	return nil
}

// Stop unsubscribes from the request subject
func (r *Runner) Stop() error {
	if err := r.subscriber.Unsubscribe(r.cfg.RequestSubject); err != nil {
		return err
	}
	r.logger.Info("Job runner stopped", "processed", r.processed.Load(), "failed", r.failed.Load())
	return nil
}

// Stats returns the number of processed and failed jobs
func (r *Runner) Stats() Stats {
	return Stats{Processed: r.processed.Load(), Failed: r.failed.Load()}
}

// handleMessage decodes one job, runs it and publishes the result.
// Only publish failures and shutdown are returned, so the broker redelivers
// exactly the jobs whose result was never delivered.
func (r *Runner) handleMessage(ctx context.Context, subject string, data []byte) error {
	var job Job
	if err := r.codec.Decode(data, &job); err != nil {
		r.logger.Warn("Discarding undecodable job",
			"subject", subject,
			"error", err,
			"data_preview", string(data[:min(100, len(data))]))
		result := r.newResult(Job{ID: uuid.NewString()})
		result.Error = &models.ErrorDetail{Code: CodeInvalidJob, Message: "Failed to decode job"}
		return r.publish(ctx, result)
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	ctx = logging.WithJobID(ctx, job.ID)

	result, err := r.Process(ctx, job)
	if err != nil {
		return err
	}
	return r.publish(ctx, result)
}

// Process runs a single job. The returned error is non-nil only when ctx
// was cancelled; every other failure is reported in JobResult.Error.
func (r *Runner) Process(ctx context.Context, job Job) (JobResult, error) {
	log := r.logger.WithContext(ctx)
	result := r.newResult(job)

	procCtx, cancel := context.WithTimeout(ctx, r.cfg.ProcessTimeout)
	defer cancel()

	var err error
	switch job.Kind {
	case KindPredict:
		result.Predictions, err = r.predictions.Predict(procCtx, job.Metrics)
	case KindDetect:
		result.Anomalies, err = r.anomalies.Detect(procCtx, job.Data)
	default:
		err = services.NewInputError("unknown job kind: %q", job.Kind)
	}

	if err != nil && ctx.Err() != nil {
		return JobResult{}, ctx.Err()
	}

	result.CompletedAt = time.Now().UTC()
	if err != nil {
		result.Predictions, result.Anomalies = nil, nil
		result.Error = errorDetail(err)
		r.failed.Add(1)
		log.Warn("Job failed", "kind", job.Kind, "code", result.Error.Code, "error", err)
		return result, nil
	}

	r.processed.Add(1)
	log.Debug("Job completed",
		"kind", job.Kind,
		"predictions", len(result.Predictions),
		"anomalies", len(result.Anomalies))
	return result, nil
}

func (r *Runner) newResult(job Job) JobResult {
	return JobResult{
		JobID:       job.ID,
		Kind:        job.Kind,
		InstanceID:  r.cfg.InstanceID,
		CompletedAt: time.Now().UTC(),
	}
}

func (r *Runner) publish(ctx context.Context, result JobResult) error {
	data, err := r.codec.Encode(result)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()

	if err := r.publisher.Publish(pubCtx, r.cfg.ResultSubject, data); err != nil {
		r.logger.WithContext(ctx).Error("Failed to publish job result",
			"subject", r.cfg.ResultSubject, "error", err)
		return fmt.Errorf("failed to publish result for job %s: %w", result.JobID, err)
	}
	return nil
}

// errorDetail maps a service failure to the error body used by the HTTP API
func errorDetail(err error) *models.ErrorDetail {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return &models.ErrorDetail{Code: svcErr.Code, Message: svcErr.Message, Details: svcErr.Details}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.ErrorDetail{Code: services.CodeComputationFailed, Message: "job timed out"}
	}
	return &models.ErrorDetail{Code: CodeInternalError, Message: "Internal server error"}
}
