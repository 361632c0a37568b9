package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// Facility is a tracked physical asset: toilet block, bin cluster, water
// point, or helpdesk. Facilities are soft-deleted.
type Facility struct {
	ID        string                `json:"id"`
	Code      string                `json:"code"`
	Type      models.FacilityType   `json:"type"`
	Zone      string                `json:"zone"`
	Latitude  float64               `json:"latitude"`
	Longitude float64               `json:"longitude"`
	Capacity  *int                  `json:"capacity,omitempty"`
	Status    models.FacilityStatus `json:"status"`
	Deleted   bool                  `json:"deleted"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// FacilityParams carries the writable facility fields.
type FacilityParams struct {
	Code      string
	Type      models.FacilityType
	Zone      string
	Latitude  float64
	Longitude float64
	Capacity  *int
}

// FacilityFilter narrows a facility listing.
type FacilityFilter struct {
	Zone   string
	Type   models.FacilityType
	Status models.FacilityStatus
}

// Maintenance follow-up windows for auto-created tasks.
const (
	maintenanceTaskDue = 60 * time.Minute
	fullTaskDue        = 120 * time.Minute
)

// FacilityStore provides facility CRUD and status transitions.
type FacilityStore struct {
	db *sql.DB
}

// NewFacilityStore creates a new FacilityStore.
func NewFacilityStore(db *sql.DB) *FacilityStore {
	return &FacilityStore{db: db}
}

const facilitySelectColumns = `
	id,
	code,
	type,
	zone,
	latitude,
	longitude,
	capacity,
	status,
	deleted,
	created_at,
	updated_at
`

// List returns non-deleted facilities matching the filter, ordered by code.
func (s *FacilityStore) List(ctx context.Context, filter FacilityFilter) ([]Facility, error) {
	query := `SELECT ` + facilitySelectColumns + ` FROM facilities WHERE NOT deleted`
	args := []interface{}{}

	if zone := strings.TrimSpace(filter.Zone); zone != "" {
		args = append(args, zone)
		query += fmt.Sprintf(" AND zone = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY lower(code), id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]Facility, 0)
	for rows.Next() {
		facility, scanErr := scanFacility(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", scanErr)
		}
		facilities = append(facilities, facility)
	}
	return facilities, rows.Err()
}

// GetByID returns one facility, deleted or not.
func (s *FacilityStore) GetByID(ctx context.Context, id string) (*Facility, error) {
	facility, err := scanFacility(s.db.QueryRowContext(ctx, `
		SELECT `+facilitySelectColumns+`
		FROM facilities
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &facility, nil
}

// Create inserts a facility. Codes are unique case-insensitively; a clash
// returns ErrDuplicateCode.
func (s *FacilityStore) Create(ctx context.Context, params FacilityParams) (*Facility, error) {
	facility, err := scanFacility(s.db.QueryRowContext(ctx, `
		INSERT INTO facilities (code, type, zone, latitude, longitude, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+facilitySelectColumns+`
	`,
		strings.TrimSpace(params.Code),
		string(params.Type),
		strings.TrimSpace(params.Zone),
		params.Latitude,
		params.Longitude,
		params.Capacity,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to create facility: %w", err)
	}
	return &facility, nil
}

// Update replaces the writable fields of a facility.
func (s *FacilityStore) Update(ctx context.Context, id string, params FacilityParams) (*Facility, error) {
	facility, err := scanFacility(s.db.QueryRowContext(ctx, `
		UPDATE facilities
		SET code = $2, type = $3, zone = $4, latitude = $5, longitude = $6,
		    capacity = $7, updated_at = NOW()
		WHERE id = $1 AND NOT deleted
		RETURNING `+facilitySelectColumns+`
	`,
		strings.TrimSpace(id),
		strings.TrimSpace(params.Code),
		string(params.Type),
		strings.TrimSpace(params.Zone),
		params.Latitude,
		params.Longitude,
		params.Capacity,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update facility: %w", err)
	}
	return &facility, nil
}

// SoftDelete marks a facility deleted. The row stays for history.
func (s *FacilityStore) SoftDelete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE facilities SET deleted = true, updated_at = NOW()
		WHERE id = $1 AND NOT deleted
	`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to delete facility: %w", err)
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

// Transition moves a facility to a new status. Transitions to maintenance
// or full create exactly one follow-up task in the same transaction:
// maintenance gets a high-priority task due in 60 minutes, full a
// medium-priority task due in 120 minutes.
func (s *FacilityStore) Transition(ctx context.Context, id string, to models.FacilityStatus) (*Facility, *Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanFacility(tx.QueryRowContext(ctx, `
		SELECT `+facilitySelectColumns+`
		FROM facilities
		WHERE id = $1 AND NOT deleted
		FOR UPDATE
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load facility for transition: %w", err)
	}

	if !current.Status.CanTransition(to) {
		return nil, nil, ErrInvalidTransition
	}

	facility, err := scanFacility(tx.QueryRowContext(ctx, `
		UPDATE facilities SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+facilitySelectColumns+`
	`, current.ID, string(to)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to transition facility: %w", err)
	}

	var task *Task
	switch to {
	case models.FacilityMaintenance:
		task, err = insertFacilityTask(ctx, tx, facility, models.PriorityHigh, maintenanceTaskDue,
			fmt.Sprintf("Maintenance required at %s", facility.Code))
	case models.FacilityFull:
		task, err = insertFacilityTask(ctx, tx, facility, models.PriorityMedium, fullTaskDue,
			fmt.Sprintf("Clearance needed at %s", facility.Code))
	}
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit facility transition: %w", err)
	}
	return &facility, task, nil
}

func insertFacilityTask(ctx context.Context, tx *sql.Tx, facility Facility, priority models.TaskPriority, due time.Duration, title string) (*Task, error) {
	task, err := scanTask(tx.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, facility_id, zone, priority, due_at, sla_minutes)
		VALUES ($1, $2, $3, $4, $5, NOW() + $6 * INTERVAL '1 minute', $6)
		RETURNING `+taskSelectColumns+`
	`,
		title,
		fmt.Sprintf("Auto-created from facility %s status change", facility.Code),
		facility.ID,
		facility.Zone,
		string(priority),
		int(due.Minutes()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create facility follow-up task: %w", err)
	}
	return &task, nil
}

// CountByStatus returns live facility counts keyed by status, optionally
// scoped to a zone. Soft-deleted facilities are excluded.
func (s *FacilityStore) CountByStatus(ctx context.Context, zone string) (map[models.FacilityStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM facilities WHERE deleted = FALSE`
	args := []interface{}{}
	if zone = strings.TrimSpace(zone); zone != "" {
		query += ` AND zone = $1`
		args = append(args, zone)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count facilities: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.FacilityStatus]int)
	for rows.Next() {
		var status models.FacilityStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan facility count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func scanFacility(row rowScanner) (Facility, error) {
	var facility Facility
	err := row.Scan(
		&facility.ID,
		&facility.Code,
		&facility.Type,
		&facility.Zone,
		&facility.Latitude,
		&facility.Longitude,
		&facility.Capacity,
		&facility.Status,
		&facility.Deleted,
		&facility.CreatedAt,
		&facility.UpdatedAt,
	)
	return facility, err
}
