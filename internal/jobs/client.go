package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soltixdb/insight/internal/queue"
)

// Client submits jobs to a runner's request subject
type Client struct {
	publisher queue.Publisher
	codec     *Codec
	subject   string
}

// NewClient creates a job submitter
func NewClient(pub queue.Publisher, codec *Codec, requestSubject string) *Client {
	return &Client{publisher: pub, codec: codec, subject: requestSubject}
}

// Submit publishes job and returns its ID, assigning one when missing
func (c *Client) Submit(ctx context.Context, job Job) (string, error) {
	if job.Kind != KindPredict && job.Kind != KindDetect {
		return "", fmt.Errorf("unknown job kind: %q", job.Kind)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	data, err := c.codec.Encode(job)
	if err != nil {
		return "", err
	}
	if err := c.publisher.Publish(ctx, c.subject, data); err != nil {
		return "", fmt.Errorf("failed to submit job %s: %w", job.ID, err)
	}
	return job.ID, nil
}
