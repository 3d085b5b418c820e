package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/soltixdb/insight/internal/compression"
)

// Codec encodes job envelopes as JSON, optionally framed and compressed.
// Decode accepts both framed and plain JSON payloads, so producers may
// publish uncompressed jobs whatever the runner is configured with.
type Codec struct {
	compressor compression.Compressor
}

// NewCodec creates a codec for the named compression algorithm ("none" or "snappy")
func NewCodec(algorithm string) (*Codec, error) {
	algo, err := compression.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	c, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &Codec{compressor: c}, nil
}

// Algorithm returns the compression algorithm used by Encode
func (c *Codec) Algorithm() compression.Algorithm {
	return c.compressor.Algorithm()
}

// Encode marshals v. Uncompressed payloads are plain JSON.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	if c.compressor.Algorithm() == compression.None {
		return data, nil
	}
	return compression.Frame(c.compressor, data)
}

// Decode unmarshals a payload produced by any Codec into v
func (c *Codec) Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}

	// Frame headers are algorithm IDs, which never start a JSON document
	if data[0] <= byte(compression.Snappy) {
		raw, err := compression.Unframe(data)
		if err != nil {
			return fmt.Errorf("failed to decompress payload: %w", err)
		}
		data = raw
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
