package image

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/bgcut/bgcut/internal/model"
)

// pipeline defines the interface for processing queued jobs.
type pipeline interface {
	Process(ctx context.Context, job model.Job) error
}

// UploadedHandler handles broker messages for newly uploaded images.
type UploadedHandler struct {
	pipeline pipeline
}

// NewUploadedHandler creates a new handler backed by the processing pipeline.
func NewUploadedHandler(p pipeline) *UploadedHandler {
	return &UploadedHandler{pipeline: p}
}

// Handle unmarshals the job and runs it through the pipeline. A malformed
// message is an error; a processing failure is not, because the pipeline has
// already recorded it and the job must not be redelivered.
func (h *UploadedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var job model.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	if err := h.pipeline.Process(ctx, job); err != nil {
		return fmt.Errorf("process job: %w", err)
	}

	return nil
}
