// Package pipeline sequences uploaded images through the background-removal
// model, one job at a time, and records the results.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp" // register webp decoding

	"github.com/bgcut/bgcut/internal/model"
	"github.com/bgcut/bgcut/internal/progress"
	"github.com/bgcut/bgcut/internal/queue"
	"github.com/bgcut/bgcut/internal/remover"
)

// Overall progress bar policy. Only the inference phase reports granular
// progress; it is mapped into the [20,90] window.
const (
	pctLoadModel      = 10.0
	pctInferenceStart = 20.0
	pctInferenceEnd   = 90.0
	pctCompositing    = 95.0
	pctDone           = 100.0
)

// backgroundRemover is the model loader contract the pipeline depends on.
type backgroundRemover interface {
	Ready() error
	Remove(ctx context.Context, img image.Image, opts model.Options, onProgress remover.ProgressFunc) (image.Image, error)
}

// fileStorage reads originals and persists results.
type fileStorage interface {
	Save(ctx context.Context, subdir, filename string, src io.Reader, contentType string) (string, error)
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// repository persists the record's terminal state.
type repository interface {
	MarkProcessed(ctx context.Context, id uuid.UUID, resultPath, suggestedFilename, format string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// Pipeline owns the single lazily-loaded model handle and the result queue.
// Process is invoked strictly sequentially by the job consumer; a second
// job's inference never starts before the previous one finishes or fails.
type Pipeline struct {
	remover backgroundRemover
	storage fileStorage
	repo    repository
	results *queue.Queue
	hub     *progress.Hub

	modelLoaded bool
}

func New(r backgroundRemover, fs fileStorage, repo repository, results *queue.Queue, hub *progress.Hub) *Pipeline {
	return &Pipeline{
		remover: r,
		storage: fs,
		repo:    repo,
		results: results,
		hub:     hub,
	}
}

// Process runs one job to completion: load the model on first use, fetch
// and decode the original, run the remover, encode per the job options,
// store the result and append the record to the queue. A failure is
// terminal for the job and leaves the queue untouched.
func (p *Pipeline) Process(ctx context.Context, job model.Job) error {
	opts := job.Options.Normalize()

	if !p.modelLoaded {
		p.publish(job.ID, progress.PhaseLoadModel, pctLoadModel, "")
		if err := p.remover.Ready(); err != nil {
			return p.fail(ctx, job, fmt.Errorf("load model: %w", err))
		}
		p.modelLoaded = true
	}

	src, err := p.storage.Load(ctx, job.Path)
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("load original: %w", err))
	}

	img, err := imaging.Decode(src)
	src.Close()
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("decode image: %w", err))
	}

	onProgress := func(phase string, current, total int) {
		p.publish(job.ID, phase, mapPhase(phase, current, total), "")
	}

	cutout, err := p.remover.Remove(ctx, img, opts, onProgress)
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("remove background: %w", err))
	}

	buf, contentType, err := encodeResult(cutout, opts)
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("encode result: %w", err))
	}

	suggested := model.SuggestedFilename(job.Filename, opts.Format)

	resultPath, err := p.storage.Save(ctx, "results", job.ID.String()+"-"+suggested, buf, contentType)
	if err != nil {
		return p.fail(ctx, job, fmt.Errorf("save result: %w", err))
	}

	if err := p.repo.MarkProcessed(ctx, job.ID, resultPath, suggested, opts.Format); err != nil {
		return p.fail(ctx, job, fmt.Errorf("mark processed: %w", err))
	}

	rec := model.ImageRecord{
		ID:                job.ID,
		SourceFilename:    job.Filename,
		OriginalPath:      job.Path,
		ResultPath:        resultPath,
		SuggestedFilename: suggested,
		Format:            opts.Format,
		Status:            model.StatusProcessed,
		CreatedAt:         time.Now(),
	}
	idx := p.results.Append(rec)

	p.publish(job.ID, progress.PhaseDone, pctDone, "")

	zlog.Logger.Info().
		Str("job_id", job.ID.String()).
		Str("result", resultPath).
		Int("queue_index", idx).
		Msg("image processed")

	return nil
}

// fail records the terminal failure and reports it; the job is not retried.
func (p *Pipeline) fail(ctx context.Context, job model.Job, err error) error {
	zlog.Logger.Err(err).Str("job_id", job.ID.String()).Msg("processing failed")

	if repoErr := p.repo.MarkFailed(ctx, job.ID); repoErr != nil {
		zlog.Logger.Err(repoErr).Str("job_id", job.ID.String()).Msg("failed to mark job failed")
	}
	p.publish(job.ID, progress.PhaseFailed, 0, err.Error())

	return err
}

func (p *Pipeline) publish(id uuid.UUID, phase string, pct float64, msg string) {
	p.hub.Publish(progress.Update{JobID: id, Phase: phase, Percent: pct, Message: msg})
}

// mapPhase places a phase's fractional completion on the overall bar.
func mapPhase(phase string, current, total int) float64 {
	frac := 0.0
	if total > 0 {
		frac = float64(current) / float64(total)
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	switch phase {
	case progress.PhaseInference:
		return pctInferenceStart + (pctInferenceEnd-pctInferenceStart)*frac
	case progress.PhaseCompositing:
		return pctCompositing
	case progress.PhaseDone:
		return pctDone
	default:
		return pctLoadModel
	}
}
