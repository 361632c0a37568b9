package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Shift is a named time window on a given date to which staff are assigned.
// Overlapping shifts are accepted as submitted; coverage reconciliation is
// the only check applied.
type Shift struct {
	ID            string    `json:"id"`
	Zone          string    `json:"zone"`
	Name          string    `json:"name"`
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	StaffIDs      []string  `json:"staff_ids"`
	RequiredStaff int       `json:"required_staff"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShiftParams carries the writable shift fields. StartTime and EndTime are
// HH:MM time-of-day strings.
type ShiftParams struct {
	Zone          string
	Name          string
	Date          time.Time
	StartTime     string
	EndTime       string
	StaffIDs      []string
	RequiredStaff int
}

// ShiftFilter narrows a shift listing.
type ShiftFilter struct {
	Zone string
	Date *time.Time
}

// ShiftStore provides shift CRUD and staff assignment.
type ShiftStore struct {
	db *sql.DB
}

// NewShiftStore creates a new ShiftStore.
func NewShiftStore(db *sql.DB) *ShiftStore {
	return &ShiftStore{db: db}
}

const shiftSelectColumns = `
	id,
	zone,
	name,
	shift_date,
	start_time,
	end_time,
	staff_ids,
	required_staff,
	created_at,
	updated_at
`

// List returns shifts matching the filter, ordered by date then start time.
func (s *ShiftStore) List(ctx context.Context, filter ShiftFilter) ([]Shift, error) {
	query := `SELECT ` + shiftSelectColumns + ` FROM shifts WHERE 1=1`
	args := []interface{}{}

	if zone := strings.TrimSpace(filter.Zone); zone != "" {
		args = append(args, zone)
		query += fmt.Sprintf(" AND zone = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		query += fmt.Sprintf(" AND shift_date = $%d", len(args))
	}
	query += " ORDER BY shift_date, start_time, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	shifts := make([]Shift, 0)
	for rows.Next() {
		shift, scanErr := scanShift(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", scanErr)
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

// GetByID returns one shift.
func (s *ShiftStore) GetByID(ctx context.Context, id string) (*Shift, error) {
	shift, err := scanShift(s.db.QueryRowContext(ctx, `
		SELECT `+shiftSelectColumns+`
		FROM shifts
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &shift, nil
}

// Create inserts a shift.
func (s *ShiftStore) Create(ctx context.Context, params ShiftParams) (*Shift, error) {
	shift, err := scanShift(s.db.QueryRowContext(ctx, `
		INSERT INTO shifts (zone, name, shift_date, start_time, end_time, staff_ids, required_staff)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+shiftSelectColumns+`
	`,
		strings.TrimSpace(params.Zone),
		strings.TrimSpace(params.Name),
		params.Date.Format("2006-01-02"),
		params.StartTime,
		params.EndTime,
		pq.Array(params.StaffIDs),
		params.RequiredStaff,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}
	return &shift, nil
}

// Update replaces the writable fields of a shift.
func (s *ShiftStore) Update(ctx context.Context, id string, params ShiftParams) (*Shift, error) {
	shift, err := scanShift(s.db.QueryRowContext(ctx, `
		UPDATE shifts
		SET zone = $2, name = $3, shift_date = $4, start_time = $5, end_time = $6,
		    staff_ids = $7, required_staff = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+shiftSelectColumns+`
	`,
		strings.TrimSpace(id),
		strings.TrimSpace(params.Zone),
		strings.TrimSpace(params.Name),
		params.Date.Format("2006-01-02"),
		params.StartTime,
		params.EndTime,
		pq.Array(params.StaffIDs),
		params.RequiredStaff,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	return &shift, nil
}

// SetStaff replaces the assigned staff list.
func (s *ShiftStore) SetStaff(ctx context.Context, id string, staffIDs []string) (*Shift, error) {
	shift, err := scanShift(s.db.QueryRowContext(ctx, `
		UPDATE shifts
		SET staff_ids = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+shiftSelectColumns+`
	`, strings.TrimSpace(id), pq.Array(staffIDs)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set shift staff: %w", err)
	}
	return &shift, nil
}

// Delete removes a shift.
func (s *ShiftStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
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

// AssignedCountForZone returns the number of distinct staff assigned across
// a zone's shifts on the given date.
func (s *ShiftStore) AssignedCountForZone(ctx context.Context, zone string, date time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT staff_id)
		FROM shifts, unnest(staff_ids) AS staff_id
		WHERE zone = $1 AND shift_date = $2
	`, strings.TrimSpace(zone), date.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assigned staff: %w", err)
	}
	return count, nil
}

func scanShift(row rowScanner) (Shift, error) {
	var shift Shift
	var staffIDs pq.StringArray
	err := row.Scan(
		&shift.ID,
		&shift.Zone,
		&shift.Name,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&staffIDs,
		&shift.RequiredStaff,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	)
	if err != nil {
		return Shift{}, err
	}
	shift.StaffIDs = staffIDs
	return shift, nil
}
