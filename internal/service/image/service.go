package image

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bgcut/bgcut/internal/model"
	"github.com/bgcut/bgcut/internal/validate"
)

// fileStorage defines the interface for storing uploaded files.
type fileStorage interface {
	Save(ctx context.Context, subdir, filename string, src io.Reader, contentType string) (string, error)
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// producer defines the interface for enqueueing jobs into the broker.
type producer interface {
	Produce(ctx context.Context, job model.Job) error
}

// repository persists image records.
type repository interface {
	SaveRecord(ctx context.Context, rec model.ImageRecord) error
	GetRecord(ctx context.Context, id uuid.UUID) (model.ImageRecord, error)
}

// Upload is one candidate file handed to SubmitBatch.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Service validates uploads, stores originals, and enqueues processing jobs.
type Service struct {
	gate        *validate.Gate
	fileStorage fileStorage
	producer    producer
	repo        repository
}

// NewService creates a new Service with the given collaborators.
func NewService(g *validate.Gate, fs fileStorage, p producer, repo repository) *Service {
	return &Service{gate: g, fileStorage: fs, producer: p, repo: repo}
}

// SubmitBatch validates every candidate, then stores the accepted originals
// and enqueues one job per accepted file in submission order. Rejected files
// are reported through a *validate.BatchError returned alongside the jobs
// for the files that passed; only a storage or broker failure aborts the
// batch.
func (s *Service) SubmitBatch(ctx context.Context, uploads []Upload, opts model.Options) ([]model.Job, error) {
	infos := make([]validate.FileInfo, 0, len(uploads))
	for _, u := range uploads {
		infos = append(infos, validate.FileInfo{
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Size:        u.Size,
		})
	}

	accepted, berr := s.gate.CheckAll(infos)

	opts = opts.Normalize()

	jobs := make([]model.Job, 0, len(accepted))
	for _, i := range accepted {
		u := uploads[i]
		id := uuid.New()

		dst, err := s.fileStorage.Save(ctx, "originals", id.String()+"-"+u.Filename, u.Reader, u.ContentType)
		if err != nil {
			return nil, fmt.Errorf("submit: failed to save file: %w", err)
		}

		rec := model.ImageRecord{
			ID:             id,
			SourceFilename: u.Filename,
			OriginalPath:   dst,
			Format:         opts.Format,
			Status:         model.StatusPending,
			CreatedAt:      time.Now(),
		}
		if err := s.repo.SaveRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("submit: failed to save record: %w", err)
		}

		job := model.Job{
			ID:        id,
			Filename:  u.Filename,
			Path:      dst,
			Options:   opts,
			CreatedAt: rec.CreatedAt,
		}
		if err := s.producer.Produce(ctx, job); err != nil {
			return nil, fmt.Errorf("submit: failed to enqueue job: %w", err)
		}

		jobs = append(jobs, job)
	}

	if berr != nil {
		return jobs, berr
	}

	return jobs, nil
}

// GetRecord returns the stored record for an image.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (model.ImageRecord, error) {
	return s.repo.GetRecord(ctx, id)
}

// OpenObject returns a reader over an object in storage.
func (s *Service) OpenObject(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.fileStorage.Load(ctx, path)
}
