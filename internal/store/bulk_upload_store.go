package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// BulkUpload records one roster spreadsheet import: what was uploaded,
// where the original file is archived, and how each row fared.
type BulkUpload struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	BlobURL   *string         `json:"blob_url,omitempty"`
	Total     int             `json:"total"`
	Imported  int             `json:"imported"`
	Failed    int             `json:"failed"`
	RowErrors json.RawMessage `json:"row_errors"`
	CreatedAt time.Time       `json:"created_at"`
}

// BulkUploadStore records import runs.
type BulkUploadStore struct {
	db *sql.DB
}

// NewBulkUploadStore creates a new BulkUploadStore.
func NewBulkUploadStore(db *sql.DB) *BulkUploadStore {
	return &BulkUploadStore{db: db}
}

// Record inserts an import run summary.
func (s *BulkUploadStore) Record(ctx context.Context, filename string, blobURL *string, total, imported, failed int, rowErrors interface{}) (*BulkUpload, error) {
	payload, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row errors: %w", err)
	}

	var upload BulkUpload
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO bulk_uploads (filename, blob_url, total, imported, failed, row_errors)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, blob_url, total, imported, failed, row_errors, created_at
	`, filename, blobURL, total, imported, failed, payload).Scan(
		&upload.ID,
		&upload.Filename,
		&upload.BlobURL,
		&upload.Total,
		&upload.Imported,
		&upload.Failed,
		&upload.RowErrors,
		&upload.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record bulk upload: %w", err)
	}
	return &upload, nil
}

// List returns import runs, newest first.
func (s *BulkUploadStore) List(ctx context.Context, limit int) ([]BulkUpload, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, blob_url, total, imported, failed, row_errors, created_at
		FROM bulk_uploads
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulk uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]BulkUpload, 0)
	for rows.Next() {
		var upload BulkUpload
		if err := rows.Scan(
			&upload.ID,
			&upload.Filename,
			&upload.BlobURL,
			&upload.Total,
			&upload.Imported,
			&upload.Failed,
			&upload.RowErrors,
			&upload.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bulk upload: %w", err)
		}
		uploads = append(uploads, upload)
	}
	return uploads, rows.Err()
}
