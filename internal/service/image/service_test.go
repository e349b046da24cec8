package image

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgcut/bgcut/internal/model"
	"github.com/bgcut/bgcut/internal/validate"
)

type fakeStorage struct {
	saved []string
}

func (f *fakeStorage) Save(_ context.Context, subdir, filename string, src io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, src); err != nil {
		return "", err
	}
	key := subdir + "/" + filename
	f.saved = append(f.saved, key)
	return key, nil
}

func (f *fakeStorage) Load(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

type fakeProducer struct {
	jobs []model.Job
}

func (f *fakeProducer) Produce(_ context.Context, job model.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeRepo struct {
	records []model.ImageRecord
}

func (f *fakeRepo) SaveRecord(_ context.Context, rec model.ImageRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRepo) GetRecord(_ context.Context, id uuid.UUID) (model.ImageRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.ImageRecord{}, nil
}

func upload(name, contentType string, size int64) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		Reader:      bytes.NewReader(make([]byte, 16)),
	}
}

func TestService_SubmitBatch(t *testing.T) {
	fs := &fakeStorage{}
	p := &fakeProducer{}
	repo := &fakeRepo{}
	svc := NewService(validate.NewGate(), fs, p, repo)

	uploads := []Upload{
		upload("a.jpg", "image/jpeg", 1024),
		upload("b.png", "image/png", 2048),
		upload("c.webp", "image/webp", 4096),
	}

	jobs, err := svc.SubmitBatch(context.Background(), uploads, model.Options{})
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	// Submission order is preserved end to end.
	assert.Equal(t, "a.jpg", jobs[0].Filename)
	assert.Equal(t, "b.png", jobs[1].Filename)
	assert.Equal(t, "c.webp", jobs[2].Filename)

	require.Len(t, p.jobs, 3)
	require.Len(t, repo.records, 3)
	for i, job := range jobs {
		assert.Equal(t, job.ID, p.jobs[i].ID)
		assert.Equal(t, model.StatusPending, repo.records[i].Status)
	}

	// Options were normalized before enqueueing.
	assert.Equal(t, model.FormatPNG, jobs[0].Options.Format)
	assert.Equal(t, model.TierFast, jobs[0].Options.Tier)
}

func TestService_SubmitBatch_MixedBatch(t *testing.T) {
	fs := &fakeStorage{}
	p := &fakeProducer{}
	repo := &fakeRepo{}
	svc := NewService(validate.NewGate(), fs, p, repo)

	uploads := []Upload{
		upload("ok.jpg", "image/jpeg", 1024),
		upload("huge.png", "image/png", 12<<20),
		upload("also-ok.webp", "image/webp", 2048),
	}

	jobs, err := svc.SubmitBatch(context.Background(), uploads, model.Options{})

	// The rejected file is reported, the accepted files still proceed.
	var berr *validate.BatchError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, berr.Error(), "huge.png")

	require.Len(t, jobs, 2)
	assert.Equal(t, "ok.jpg", jobs[0].Filename)
	assert.Equal(t, "also-ok.webp", jobs[1].Filename)

	require.Len(t, p.jobs, 2)
	require.Len(t, repo.records, 2)
	require.Len(t, fs.saved, 2)
	for _, key := range fs.saved {
		assert.NotContains(t, key, "huge.png")
	}
}

func TestService_SubmitBatch_AllRejected(t *testing.T) {
	fs := &fakeStorage{}
	p := &fakeProducer{}
	repo := &fakeRepo{}
	svc := NewService(validate.NewGate(), fs, p, repo)

	jobs, err := svc.SubmitBatch(context.Background(), []Upload{
		upload("clip.gif", "image/gif", 10),
	}, model.Options{})

	assert.ErrorContains(t, err, "clip.gif")
	assert.Empty(t, jobs)

	// Nothing is stored or enqueued when every file fails validation.
	assert.Empty(t, fs.saved)
	assert.Empty(t, p.jobs)
	assert.Empty(t, repo.records)
}
