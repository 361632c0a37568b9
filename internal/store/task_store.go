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

// Task is a unit of maintenance or triage work. Status only moves forward:
// pending -> in-progress -> completed -> verified.
type Task struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	FacilityID   *string              `json:"facility_id,omitempty"`
	Zone         string               `json:"zone"`
	AssigneeType *models.AssigneeType `json:"assignee_type,omitempty"`
	AssigneeID   *string              `json:"assignee_id,omitempty"`
	Priority     models.TaskPriority  `json:"priority"`
	Status       models.TaskStatus    `json:"status"`
	DueAt        *time.Time           `json:"due_at,omitempty"`
	SLAMinutes   int                  `json:"sla_minutes"`
	CreatedAt    time.Time            `json:"created_at"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	VerifiedAt   *time.Time           `json:"verified_at,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TaskParams carries the writable task fields.
type TaskParams struct {
	Title        string
	Description  string
	FacilityID   *string
	Zone         string
	AssigneeType *models.AssigneeType
	AssigneeID   *string
	Priority     models.TaskPriority
	DueAt        *time.Time
	SLAMinutes   int
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	Zone       string
	Status     models.TaskStatus
	Priority   models.TaskPriority
	AssigneeID string
	FacilityID string
	Limit      int
	Offset     int
}

// TaskStore provides task CRUD and forward-only status transitions.
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskSelectColumns = `
	id,
	title,
	description,
	facility_id,
	zone,
	assignee_type,
	assignee_id,
	priority,
	status,
	due_at,
	sla_minutes,
	created_at,
	started_at,
	completed_at,
	verified_at,
	updated_at
`

// List returns tasks matching the filter, newest first.
func (s *TaskStore) List(ctx context.Context, filter TaskFilter) ([]Task, error) {
	query := `SELECT ` + taskSelectColumns + ` FROM tasks WHERE 1=1`
	args := []interface{}{}

	if zone := strings.TrimSpace(filter.Zone); zone != "" {
		args = append(args, zone)
		query += fmt.Sprintf(" AND zone = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if assignee := strings.TrimSpace(filter.AssigneeID); assignee != "" {
		args = append(args, assignee)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if facilityID := strings.TrimSpace(filter.FacilityID); facilityID != "" {
		args = append(args, facilityID)
		query += fmt.Sprintf(" AND facility_id = $%d", len(args))
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
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan task: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetByID returns one task.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `
		SELECT `+taskSelectColumns+`
		FROM tasks
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// Create inserts a task.
func (s *TaskStore) Create(ctx context.Context, params TaskParams) (*Task, error) {
	var assigneeType *string
	if params.AssigneeType != nil {
		v := string(*params.AssigneeType)
		assigneeType = &v
	}
	task, err := scanTask(s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, facility_id, zone, assignee_type, assignee_id, priority, due_at, sla_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskSelectColumns+`
	`,
		strings.TrimSpace(params.Title),
		params.Description,
		params.FacilityID,
		strings.TrimSpace(params.Zone),
		assigneeType,
		params.AssigneeID,
		string(params.Priority),
		params.DueAt,
		params.SLAMinutes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// Assign sets the assignee without touching status.
func (s *TaskStore) Assign(ctx context.Context, id string, assigneeType models.AssigneeType, assigneeID string) (*Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET assignee_type = $2, assignee_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskSelectColumns+`
	`, strings.TrimSpace(id), string(assigneeType), strings.TrimSpace(assigneeID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	return &task, nil
}

// Transition moves a task forward one step and stamps the transition time.
func (s *TaskStore) Transition(ctx context.Context, id string, to models.TaskStatus) (*Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanTask(tx.QueryRowContext(ctx, `
		SELECT `+taskSelectColumns+`
		FROM tasks
		WHERE id = $1
		FOR UPDATE
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load task for transition: %w", err)
	}

	if !current.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	var stampColumn string
	switch to {
	case models.TaskInProgress:
		stampColumn = "started_at"
	case models.TaskCompleted:
		stampColumn = "completed_at"
	case models.TaskVerified:
		stampColumn = "verified_at"
	default:
		return nil, ErrInvalidTransition
	}

	task, err := scanTask(tx.QueryRowContext(ctx, `
		UPDATE tasks
		SET status = $2, `+stampColumn+` = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskSelectColumns+`
	`, current.ID, string(to)))
	if err != nil {
		return nil, fmt.Errorf("failed to transition task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task transition: %w", err)
	}
	return &task, nil
}

// CountByStatus returns task counts keyed by status, optionally scoped to a zone.
func (s *TaskStore) CountByStatus(ctx context.Context, zone string) (map[models.TaskStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tasks`
	args := []interface{}{}
	if zone = strings.TrimSpace(zone); zone != "" {
		query += ` WHERE zone = $1`
		args = append(args, zone)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var assigneeType *string
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.FacilityID,
		&task.Zone,
		&assigneeType,
		&task.AssigneeID,
		&task.Priority,
		&task.Status,
		&task.DueAt,
		&task.SLAMinutes,
		&task.CreatedAt,
		&task.StartedAt,
		&task.CompletedAt,
		&task.VerifiedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	if assigneeType != nil {
		at := models.AssigneeType(*assigneeType)
		task.AssigneeType = &at
	}
	return task, nil
}
