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

// Headcount is one crowd measurement for a zone. The most recent record by
// timestamp drives the coverage calculation.
type Headcount struct {
	ID         string                 `json:"id"`
	Zone       string                 `json:"zone"`
	Count      int                    `json:"count"`
	Source     models.HeadcountSource `json:"source"`
	Confidence float64                `json:"confidence"`
	RecordedAt time.Time              `json:"recorded_at"`
}

// HeadcountParams carries the fields accepted when recording a headcount.
type HeadcountParams struct {
	Zone       string
	Count      int
	Source     models.HeadcountSource
	Confidence float64
	RecordedAt time.Time
}

// HeadcountStore records and reads crowd measurements.
type HeadcountStore struct {
	db *sql.DB
}

// NewHeadcountStore creates a new HeadcountStore.
func NewHeadcountStore(db *sql.DB) *HeadcountStore {
	return &HeadcountStore{db: db}
}

const headcountSelectColumns = `
	id,
	zone,
	count,
	source,
	confidence,
	recorded_at
`

// Record inserts a headcount measurement.
func (s *HeadcountStore) Record(ctx context.Context, params HeadcountParams) (*Headcount, error) {
	recordedAt := params.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	headcount, err := scanHeadcount(s.db.QueryRowContext(ctx, `
		INSERT INTO headcounts (zone, count, source, confidence, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+headcountSelectColumns+`
	`,
		strings.TrimSpace(params.Zone),
		params.Count,
		string(params.Source),
		params.Confidence,
		recordedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to record headcount: %w", err)
	}
	return &headcount, nil
}

// LatestForZone returns the most recent headcount for a zone.
func (s *HeadcountStore) LatestForZone(ctx context.Context, zone string) (*Headcount, error) {
	headcount, err := scanHeadcount(s.db.QueryRowContext(ctx, `
		SELECT `+headcountSelectColumns+`
		FROM headcounts
		WHERE zone = $1
		ORDER BY recorded_at DESC, id
		LIMIT 1
	`, strings.TrimSpace(zone)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest headcount: %w", err)
	}
	return &headcount, nil
}

// LatestPerZone returns the most recent headcount for every zone.
func (s *HeadcountStore) LatestPerZone(ctx context.Context) ([]Headcount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (zone) `+headcountSelectColumns+`
		FROM headcounts
		ORDER BY zone, recorded_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest headcounts: %w", err)
	}
	defer rows.Close()

	headcounts := make([]Headcount, 0)
	for rows.Next() {
		headcount, scanErr := scanHeadcount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan headcount: %w", scanErr)
		}
		headcounts = append(headcounts, headcount)
	}
	return headcounts, rows.Err()
}

// History returns recent measurements for a zone, newest first.
func (s *HeadcountStore) History(ctx context.Context, zone string, limit int) ([]Headcount, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+headcountSelectColumns+`
		FROM headcounts
		WHERE zone = $1
		ORDER BY recorded_at DESC, id
		LIMIT $2
	`, strings.TrimSpace(zone), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list headcount history: %w", err)
	}
	defer rows.Close()

	headcounts := make([]Headcount, 0)
	for rows.Next() {
		headcount, scanErr := scanHeadcount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan headcount: %w", scanErr)
		}
		headcounts = append(headcounts, headcount)
	}
	return headcounts, rows.Err()
}

func scanHeadcount(row rowScanner) (Headcount, error) {
	var headcount Headcount
	err := row.Scan(
		&headcount.ID,
		&headcount.Zone,
		&headcount.Count,
		&headcount.Source,
		&headcount.Confidence,
		&headcount.RecordedAt,
	)
	return headcount, err
}
