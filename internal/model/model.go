package model

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// ImageRecord is the stored original/result pair plus metadata for one
// processed image. It is immutable once the pipeline appends it to the queue.
type ImageRecord struct {
	ID                uuid.UUID `json:"id"`
	SourceFilename    string    `json:"source_filename"`
	OriginalPath      string    `json:"original_path"`
	ResultPath        string    `json:"result_path"`
	SuggestedFilename string    `json:"suggested_filename"`
	Format            string    `json:"format"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// Job is a background-removal task sent to the broker.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"file_path"` // original object key in storage
	Options   Options   `json:"options"`
	CreatedAt time.Time `json:"created_at"`
}

// Quality tiers. The tier selects the model file and its input resolution.
const (
	TierFast    = "fast"
	TierQuality = "quality"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Options holds the recognized processing configuration for one job.
type Options struct {
	Tier       string `json:"tier"`       // "fast" or "quality"
	Format     string `json:"format"`     // "png" keeps alpha, "jpeg" is composited
	Quality    int    `json:"quality"`    // JPEG quality factor, 1-100
	Background string `json:"background"` // hex color under JPEG output, e.g. "#ffffff"
}

// Normalize fills unset option fields with defaults.
func (o Options) Normalize() Options {
	if o.Tier == "" {
		o.Tier = TierFast
	}
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 90
	}
	if o.Background == "" {
		o.Background = "#ffffff"
	}
	return o
}

// SuggestedFilename derives the download name for a processed image from the
// uploaded filename, e.g. "photo.jpg" -> "photo-cutout.png".
func SuggestedFilename(source, format string) string {
	base := source
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			base = base[:i]
			break
		}
		if base[i] == '/' || base[i] == '\\' {
			break
		}
	}
	ext := "png"
	if format == FormatJPEG {
		ext = "jpg"
	}
	return base + "-cutout." + ext
}
