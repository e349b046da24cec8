package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/bgcut/bgcut/internal/api/respond"
	"github.com/bgcut/bgcut/internal/model"
	"github.com/bgcut/bgcut/internal/progress"
	"github.com/bgcut/bgcut/internal/queue"
	imagerepo "github.com/bgcut/bgcut/internal/repository/image"
	imagesvc "github.com/bgcut/bgcut/internal/service/image"
	"github.com/bgcut/bgcut/internal/validate"
)

// service defines the interface for image-related operations.
type service interface {
	SubmitBatch(ctx context.Context, uploads []imagesvc.Upload, opts model.Options) ([]model.Job, error)
	GetRecord(ctx context.Context, id uuid.UUID) (model.ImageRecord, error)
	OpenObject(ctx context.Context, path string) (io.ReadCloser, error)
}

// Handler provides HTTP handlers for upload, queue navigation, image
// serving and downloads.
type Handler struct {
	service service
	results *queue.Queue
	hub     *progress.Hub
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(s service, results *queue.Queue, hub *progress.Hub) *Handler {
	return &Handler{service: s, results: results, hub: hub}
}

// Upload accepts one or more images from a multipart form, validates them
// and enqueues a processing job per accepted file in submission order.
// Rejected files are reported back without blocking the rest of the batch.
func (h *Handler) Upload(c *ginext.Context) {
	// Parse the multipart form with a 32MB max memory limit; larger parts
	// spill to disk.
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	form := c.Request.MultipartForm
	headers := form.File["images"]
	if len(headers) == 0 {
		zlog.Logger.Warn().Msg("no images provided")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("at least one image is required"))
		return
	}

	// Optional processing options as a JSON form field.
	var opts model.Options
	if raw := c.PostForm("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			zlog.Logger.Err(err).Msg("failed to unmarshal options")
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to unmarshal options"))
			return
		}
	}

	uploads := make([]imagesvc.Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to open uploaded file %q", header.Filename))
			return
		}
		defer f.Close()

		uploads = append(uploads, imagesvc.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		})
	}

	jobs, err := h.service.SubmitBatch(c.Request.Context(), uploads, opts)

	var berr *validate.BatchError
	if err != nil && !errors.As(err, &berr) {
		zlog.Logger.Err(err).Msg("failed to submit batch")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to submit batch: %v", err))
		return
	}
	if berr != nil && len(jobs) == 0 {
		zlog.Logger.Warn().Err(berr).Msg("every file rejected")
		respond.Fail(c, http.StatusBadRequest, berr)
		return
	}

	ids := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}

	result := map[string]interface{}{
		"job_ids": ids,
		"count":   len(jobs),
	}

	// Accepted files proceed even when some of the batch was rejected; the
	// rejections ride along so the client can surface them.
	if berr != nil {
		zlog.Logger.Warn().Err(berr).Msg("batch partially rejected")
		rejected := make([]string, 0, len(berr.Rejected))
		for _, r := range berr.Rejected {
			rejected = append(rejected, r.Error())
		}
		result["rejected"] = rejected
	}

	respond.Created(c, result)
}

// queueView is the JSON shape of the result queue state.
type queueView struct {
	Items     []model.ImageRecord `json:"items"`
	Cursor    int                 `json:"cursor"`
	MultiItem bool                `json:"multi_item"`
}

func (h *Handler) view() queueView {
	_, cursor, ok := h.results.Current()
	if !ok {
		cursor = -1
	}
	return queueView{
		Items:     h.results.Items(),
		Cursor:    cursor,
		MultiItem: h.results.MultiItem(),
	}
}

// Queue returns the processed records, the cursor, and the multi-item flag.
func (h *Handler) Queue(c *ginext.Context) {
	respond.OK(c, h.view())
}

// SelectRequest carries the target index for queue selection.
type SelectRequest struct {
	Index int `json:"index"`
}

// Select moves the cursor to the requested index.
func (h *Handler) Select(c *ginext.Context) {
	var req SelectRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.results.Select(req.Index); err != nil {
		respond.Fail(c, http.StatusBadRequest, err)
		return
	}

	respond.OK(c, h.view())
}

// Prev moves the cursor one record back, clamped at the first record.
func (h *Handler) Prev(c *ginext.Context) {
	h.results.Prev()
	respond.OK(c, h.view())
}

// Next moves the cursor one record forward, clamped at the last record.
func (h *Handler) Next(c *ginext.Context) {
	h.results.Next()
	respond.OK(c, h.view())
}

// Original serves the uploaded image bytes for a given image ID.
func (h *Handler) Original(c *ginext.Context) {
	rec, ok := h.record(c)
	if !ok {
		return
	}

	h.serveObject(c, rec.OriginalPath, "application/octet-stream")
}

// Result serves the processed image bytes for a given image ID.
func (h *Handler) Result(c *ginext.Context) {
	rec, ok := h.record(c)
	if !ok {
		return
	}
	if rec.Status != model.StatusProcessed {
		respond.Fail(c, http.StatusConflict, fmt.Errorf("image is not processed yet"))
		return
	}

	h.serveObject(c, rec.ResultPath, contentTypeFor(rec.Format))
}

// Download serves the processed image as an attachment under its suggested
// file name.
func (h *Handler) Download(c *ginext.Context) {
	rec, ok := h.record(c)
	if !ok {
		return
	}
	if rec.Status != model.StatusProcessed {
		respond.Fail(c, http.StatusConflict, fmt.Errorf("image is not processed yet"))
		return
	}

	reader, err := h.service.OpenObject(c.Request.Context(), rec.ResultPath)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to open result object")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to load result"))
		return
	}
	defer reader.Close()

	respond.Attachment(c, contentTypeFor(rec.Format), rec.SuggestedFilename, reader)
}

// Progress returns the latest progress snapshot for a job.
func (h *Handler) Progress(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	u, ok := h.hub.Latest(id)
	if !ok {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("no progress for job"))
		return
	}

	respond.OK(c, u)
}

// record parses the :id parameter and loads the record, writing the error
// response itself when something is off.
func (h *Handler) record(c *ginext.Context) (model.ImageRecord, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return model.ImageRecord{}, false
	}

	rec, err := h.service.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, imagerepo.ErrImageNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("image not found"))
			return model.ImageRecord{}, false
		}

		zlog.Logger.Err(err).Msg("failed to get image record")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get image"))
		return model.ImageRecord{}, false
	}

	return rec, true
}

func (h *Handler) serveObject(c *ginext.Context, path, contentType string) {
	reader, err := h.service.OpenObject(c.Request.Context(), path)
	if err != nil {
		zlog.Logger.Err(err).Str("path", path).Msg("failed to open object")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to load image"))
		return
	}
	defer reader.Close()

	// Disable browser caching so navigation always shows fresh bytes.
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")

	respond.Image(c, http.StatusOK, contentType, reader)
}

func contentTypeFor(format string) string {
	if format == model.FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}
