package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// Ad is a public announcement with a validity window.
type Ad struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Type        models.AdType   `json:"type"`
	Description string          `json:"description"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidUntil  time.Time       `json:"valid_until"`
	Status      models.AdStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AdParams carries the writable ad fields.
type AdParams struct {
	Title       string
	Type        models.AdType
	Description string
	ValidFrom   time.Time
	ValidUntil  time.Time
}

// AdStore provides ad CRUD and lifecycle transitions.
type AdStore struct {
	db *sql.DB
}

// NewAdStore creates a new AdStore.
func NewAdStore(db *sql.DB) *AdStore {
	return &AdStore{db: db}
}

const adSelectColumns = `
	id,
	title,
	type,
	description,
	valid_from,
	valid_until,
	status,
	created_at,
	updated_at
`

// List returns ads, newest first, optionally filtered by status.
func (s *AdStore) List(ctx context.Context, status models.AdStatus) ([]Ad, error) {
	query := `SELECT ` + adSelectColumns + ` FROM ads`
	args := []interface{}{}
	if status != "" {
		args = append(args, string(status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := make([]Ad, 0)
	for rows.Next() {
		ad, scanErr := scanAd(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", scanErr)
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// GetByID returns one ad.
func (s *AdStore) GetByID(ctx context.Context, id string) (*Ad, error) {
	ad, err := scanAd(s.db.QueryRowContext(ctx, `
		SELECT `+adSelectColumns+`
		FROM ads
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return &ad, nil
}

// Create inserts an ad in draft status.
func (s *AdStore) Create(ctx context.Context, params AdParams) (*Ad, error) {
	ad, err := scanAd(s.db.QueryRowContext(ctx, `
		INSERT INTO ads (title, type, description, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+adSelectColumns+`
	`,
		strings.TrimSpace(params.Title),
		string(params.Type),
		params.Description,
		params.ValidFrom,
		params.ValidUntil,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}
	return &ad, nil
}

// Update replaces the writable fields of an ad.
func (s *AdStore) Update(ctx context.Context, id string, params AdParams) (*Ad, error) {
	ad, err := scanAd(s.db.QueryRowContext(ctx, `
		UPDATE ads
		SET title = $2, type = $3, description = $4, valid_from = $5,
		    valid_until = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+adSelectColumns+`
	`,
		strings.TrimSpace(id),
		strings.TrimSpace(params.Title),
		string(params.Type),
		params.Description,
		params.ValidFrom,
		params.ValidUntil,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update ad: %w", err)
	}
	return &ad, nil
}

// Transition moves an ad along draft -> published -> expired.
func (s *AdStore) Transition(ctx context.Context, id string, to models.AdStatus) (*Ad, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanAd(tx.QueryRowContext(ctx, `
		SELECT `+adSelectColumns+` FROM ads WHERE id = $1 FOR UPDATE
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ad for transition: %w", err)
	}

	if !current.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	ad, err := scanAd(tx.QueryRowContext(ctx, `
		UPDATE ads SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+adSelectColumns+`
	`, current.ID, string(to)))
	if err != nil {
		return nil, fmt.Errorf("failed to transition ad: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ad transition: %w", err)
	}
	return &ad, nil
}

// Delete removes a draft ad. Published ads expire instead.
func (s *AdStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM ads WHERE id = $1 AND status = 'draft'
	`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAd(row rowScanner) (Ad, error) {
	var ad Ad
	err := row.Scan(
		&ad.ID,
		&ad.Title,
		&ad.Type,
		&ad.Description,
		&ad.ValidFrom,
		&ad.ValidUntil,
		&ad.Status,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)
	return ad, err
}
