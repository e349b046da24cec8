package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/bgcut/bgcut/internal/model"
)

var ErrImageNotFound = errors.New("image not found")

// Repository persists image records in Postgres.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveRecord inserts a pending record for a freshly uploaded image.
func (r *Repository) SaveRecord(ctx context.Context, rec model.ImageRecord) error {
	query := `
		INSERT INTO images (id, source_filename, original_path, result_path, suggested_filename, format, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
   `

	_, err := r.db.ExecContext(
		ctx, query,
		rec.ID, rec.SourceFilename, rec.OriginalPath, rec.ResultPath, rec.SuggestedFilename, rec.Format, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("save: failed to save image record: %w", err)
	}

	return nil
}

// GetRecord retrieves an image record by ID.
func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (model.ImageRecord, error) {
	query := `
		SELECT source_filename, original_path, result_path, suggested_filename, format, status, created_at
		FROM images
		WHERE id = $1
    `

	var rec model.ImageRecord
	rec.ID = id

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.SourceFilename, &rec.OriginalPath, &rec.ResultPath,
		&rec.SuggestedFilename, &rec.Format, &rec.Status, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ImageRecord{}, ErrImageNotFound
		}

		return model.ImageRecord{}, fmt.Errorf("get: failed to get image record: %w", err)
	}

	return rec, nil
}

// MarkProcessed stores the result location once the pipeline finishes a job.
func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, resultPath, suggestedFilename, format string) error {
	query := `
		UPDATE images
		SET result_path = $1, suggested_filename = $2, format = $3, status = $4
		WHERE id = $5
    `

	res, err := r.db.ExecContext(ctx, query, resultPath, suggestedFilename, format, model.StatusProcessed, id)
	if err != nil {
		return fmt.Errorf("update: failed to mark image processed: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrImageNotFound
	}

	return nil
}

// MarkFailed records a terminal processing failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE images
		SET status = $1
		WHERE id = $2
    `

	res, err := r.db.ExecContext(ctx, query, model.StatusFailed, id)
	if err != nil {
		return fmt.Errorf("update: failed to mark image failed: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrImageNotFound
	}

	return nil
}

// DeleteRecord deletes an image record by ID.
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM images WHERE id = $1
    `

	rows, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: failed to delete image record: %w", err)
	}

	n, err := rows.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrImageNotFound
	}

	return nil
}
