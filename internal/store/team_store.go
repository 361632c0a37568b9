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

// Team groups staff under a leader and covers one or more zones.
type Team struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	LeaderID     *string           `json:"leader_id,omitempty"`
	MemberIDs    []string          `json:"member_ids"`
	Zones        []string          `json:"zones"`
	DefaultShift models.ShiftColor `json:"default_shift"`
	Capacity     int               `json:"capacity"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TeamParams carries the writable team fields.
type TeamParams struct {
	Name         string
	LeaderID     *string
	MemberIDs    []string
	Zones        []string
	DefaultShift models.ShiftColor
	Capacity     int
}

// TeamStore provides team CRUD.
type TeamStore struct {
	db *sql.DB
}

// NewTeamStore creates a new TeamStore.
func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{db: db}
}

const teamSelectColumns = `
	id,
	name,
	leader_id,
	member_ids,
	zones,
	default_shift,
	capacity,
	created_at,
	updated_at
`

// List returns all teams ordered by name.
func (s *TeamStore) List(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+teamSelectColumns+`
		FROM teams
		ORDER BY lower(name), id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team: %w", scanErr)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// GetByID returns one team.
func (s *TeamStore) GetByID(ctx context.Context, id string) (*Team, error) {
	team, err := scanTeam(s.db.QueryRowContext(ctx, `
		SELECT `+teamSelectColumns+`
		FROM teams
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

// Create inserts a team.
func (s *TeamStore) Create(ctx context.Context, params TeamParams) (*Team, error) {
	team, err := scanTeam(s.db.QueryRowContext(ctx, `
		INSERT INTO teams (name, leader_id, member_ids, zones, default_shift, capacity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+teamSelectColumns+`
	`,
		strings.TrimSpace(params.Name),
		params.LeaderID,
		pq.Array(params.MemberIDs),
		pq.Array(params.Zones),
		string(params.DefaultShift),
		params.Capacity,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &team, nil
}

// Update replaces the writable fields of a team.
func (s *TeamStore) Update(ctx context.Context, id string, params TeamParams) (*Team, error) {
	team, err := scanTeam(s.db.QueryRowContext(ctx, `
		UPDATE teams
		SET name = $2, leader_id = $3, member_ids = $4, zones = $5,
		    default_shift = $6, capacity = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+teamSelectColumns+`
	`,
		strings.TrimSpace(id),
		strings.TrimSpace(params.Name),
		params.LeaderID,
		pq.Array(params.MemberIDs),
		pq.Array(params.Zones),
		string(params.DefaultShift),
		params.Capacity,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return &team, nil
}

// Delete removes a team. Staff keep their team references; listings filter
// out dangling IDs client-side.
func (s *TeamStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
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

func scanTeam(row rowScanner) (Team, error) {
	var team Team
	var memberIDs pq.StringArray
	var zones pq.StringArray
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.LeaderID,
		&memberIDs,
		&zones,
		&team.DefaultShift,
		&team.Capacity,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return Team{}, err
	}
	team.MemberIDs = memberIDs
	team.Zones = zones
	return team, nil
}
