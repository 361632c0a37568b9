package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// StaffMember represents one field worker or coordinator. Staff are never
// hard-deleted; deactivation flips the active flag and keeps history intact.
type StaffMember struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Email     *string           `json:"email,omitempty"`
	Role      models.Role       `json:"role"`
	TeamIDs   []string          `json:"team_ids"`
	OnDuty    bool              `json:"on_duty"`
	Shift     models.ShiftColor `json:"shift"`
	Zone      string            `json:"zone"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StaffFilter narrows a staff listing.
type StaffFilter struct {
	Zone   string
	TeamID string
	Role   models.Role
	Active *bool
	OnDuty *bool
	Limit  int
	Offset int
}

// StaffParams carries the writable staff fields.
type StaffParams struct {
	Name    string
	Phone   string
	Email   *string
	Role    models.Role
	TeamIDs []string
	Shift   models.ShiftColor
	Zone    string
}

// StaffStore provides staff CRUD with an append-only audit trail.
type StaffStore struct {
	db *sql.DB
}

// NewStaffStore creates a new StaffStore.
func NewStaffStore(db *sql.DB) *StaffStore {
	return &StaffStore{db: db}
}

const staffSelectColumns = `
	id,
	name,
	phone,
	email,
	role,
	team_ids,
	on_duty,
	shift,
	zone,
	active,
	created_at,
	updated_at
`

// List returns staff matching the filter, newest first.
func (s *StaffStore) List(ctx context.Context, filter StaffFilter) ([]StaffMember, error) {
	query := `SELECT ` + staffSelectColumns + ` FROM staff WHERE 1=1`
	args := []interface{}{}

	if zone := strings.TrimSpace(filter.Zone); zone != "" {
		args = append(args, zone)
		query += fmt.Sprintf(" AND zone = $%d", len(args))
	}
	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		args = append(args, teamID)
		query += fmt.Sprintf(" AND $%d::uuid = ANY(team_ids)", len(args))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.OnDuty != nil {
		args = append(args, *filter.OnDuty)
		query += fmt.Sprintf(" AND on_duty = $%d", len(args))
	}

	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	members := make([]StaffMember, 0)
	for rows.Next() {
		member, scanErr := scanStaff(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", scanErr)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read staff: %w", err)
	}
	return members, nil
}

// GetByID returns one staff member.
func (s *StaffStore) GetByID(ctx context.Context, id string) (*StaffMember, error) {
	member, err := scanStaff(s.db.QueryRowContext(ctx, `
		SELECT `+staffSelectColumns+`
		FROM staff
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &member, nil
}

// Create inserts a staff member and records the create in the audit trail,
// in one transaction.
func (s *StaffStore) Create(ctx context.Context, params StaffParams, actor string) (*StaffMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := scanStaff(tx.QueryRowContext(ctx, `
		INSERT INTO staff (name, phone, email, role, team_ids, shift, zone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+staffSelectColumns+`
	`,
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Phone),
		params.Email,
		string(params.Role),
		pq.Array(params.TeamIDs),
		string(params.Shift),
		strings.TrimSpace(params.Zone),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}

	if err := appendStaffAudit(ctx, tx, member.ID, models.AuditCreate, member, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit staff create: %w", err)
	}
	return &member, nil
}

// Update replaces the writable fields of a staff member and records the
// change snapshot in the audit trail.
func (s *StaffStore) Update(ctx context.Context, id string, params StaffParams, actor string) (*StaffMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := scanStaff(tx.QueryRowContext(ctx, `
		UPDATE staff
		SET name = $2, phone = $3, email = $4, role = $5, team_ids = $6,
		    shift = $7, zone = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+staffSelectColumns+`
	`,
		strings.TrimSpace(id),
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Phone),
		params.Email,
		string(params.Role),
		pq.Array(params.TeamIDs),
		string(params.Shift),
		strings.TrimSpace(params.Zone),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}

	if err := appendStaffAudit(ctx, tx, member.ID, models.AuditUpdate, member, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit staff update: %w", err)
	}
	return &member, nil
}

// SetActive flips the soft-delete flag and records the action.
func (s *StaffStore) SetActive(ctx context.Context, id string, active bool, actor string) (*StaffMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := scanStaff(tx.QueryRowContext(ctx, `
		UPDATE staff
		SET active = $2, on_duty = CASE WHEN $2 THEN on_duty ELSE false END, updated_at = NOW()
		WHERE id = $1
		RETURNING `+staffSelectColumns+`
	`, strings.TrimSpace(id), active))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set staff active flag: %w", err)
	}

	action := models.AuditDeactivate
	if active {
		action = models.AuditActivate
	}
	if err := appendStaffAudit(ctx, tx, member.ID, action, member, actor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit staff active change: %w", err)
	}
	return &member, nil
}

// SetOnDuty flips the on-duty flag.
func (s *StaffStore) SetOnDuty(ctx context.Context, id string, onDuty bool) (*StaffMember, error) {
	member, err := scanStaff(s.db.QueryRowContext(ctx, `
		UPDATE staff
		SET on_duty = $2, updated_at = NOW()
		WHERE id = $1 AND active
		RETURNING `+staffSelectColumns+`
	`, strings.TrimSpace(id), onDuty))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set staff on-duty flag: %w", err)
	}
	return &member, nil
}

// CountOnDutyByZone returns active on-duty staff counts keyed by zone.
func (s *StaffStore) CountOnDutyByZone(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone, COUNT(*)
		FROM staff
		WHERE active AND on_duty
		GROUP BY zone
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count on-duty staff: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var zone string
		var n int
		if err := rows.Scan(&zone, &n); err != nil {
			return nil, fmt.Errorf("failed to scan on-duty count: %w", err)
		}
		counts[zone] = n
	}
	return counts, rows.Err()
}

func appendStaffAudit(ctx context.Context, tx *sql.Tx, staffID string, action models.AuditAction, snapshot StaffMember, actor string) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO staff_audit (staff_id, action, snapshot, actor)
		VALUES ($1, $2, $3, $4)
	`, staffID, string(action), payload, actor); err != nil {
		return fmt.Errorf("failed to append staff audit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStaff(row rowScanner) (StaffMember, error) {
	var member StaffMember
	var teamIDs pq.StringArray
	err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Phone,
		&member.Email,
		&member.Role,
		&teamIDs,
		&member.OnDuty,
		&member.Shift,
		&member.Zone,
		&member.Active,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return StaffMember{}, err
	}
	member.TeamIDs = teamIDs
	return member, nil
}
