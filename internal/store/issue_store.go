package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/sla"
)

// Issue is a reported problem on the event site. High and critical
// severities get a triage task created in the same transaction as the
// issue itself.
type Issue struct {
	ID                string               `json:"id"`
	FacilityID        *string              `json:"facility_id,omitempty"`
	Zone              string               `json:"zone"`
	Category          string               `json:"category"`
	Severity          models.IssueSeverity `json:"severity"`
	Description       string               `json:"description"`
	ReporterAnonymous bool                 `json:"reporter_anonymous"`
	ReporterName      *string              `json:"reporter_name,omitempty"`
	ReporterContact   *string              `json:"reporter_contact,omitempty"`
	Status            models.IssueStatus   `json:"status"`
	AssigneeID        *string              `json:"assignee_id,omitempty"`
	ReportedAt        time.Time            `json:"reported_at"`
	ResolvedAt        *time.Time           `json:"resolved_at,omitempty"`
	ClosedAt          *time.Time           `json:"closed_at,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// IssueParams carries the fields accepted when reporting an issue.
type IssueParams struct {
	FacilityID        *string
	Zone              string
	Category          string
	Severity          models.IssueSeverity
	Description       string
	ReporterAnonymous bool
	ReporterName      *string
	ReporterContact   *string
}

// IssueFilter narrows an issue listing.
type IssueFilter struct {
	Zone     string
	Severity models.IssueSeverity
	Status   models.IssueStatus
	Limit    int
	Offset   int
}

// IssueStore provides issue CRUD, triage-task creation, and forward-only
// status transitions.
type IssueStore struct {
	db *sql.DB
}

// NewIssueStore creates a new IssueStore.
func NewIssueStore(db *sql.DB) *IssueStore {
	return &IssueStore{db: db}
}

const issueSelectColumns = `
	id,
	facility_id,
	zone,
	category,
	severity,
	description,
	reporter_anonymous,
	reporter_name,
	reporter_contact,
	status,
	assignee_id,
	reported_at,
	resolved_at,
	closed_at,
	updated_at
`

// List returns issues matching the filter, newest first.
func (s *IssueStore) List(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	query := `SELECT ` + issueSelectColumns + ` FROM issues WHERE 1=1`
	args := []interface{}{}

	if zone := strings.TrimSpace(filter.Zone); zone != "" {
		args = append(args, zone)
		query += fmt.Sprintf(" AND zone = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY reported_at DESC, id"
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
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := make([]Issue, 0)
	for rows.Next() {
		issue, scanErr := scanIssue(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", scanErr)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// GetByID returns one issue.
func (s *IssueStore) GetByID(ctx context.Context, id string) (*Issue, error) {
	issue, err := scanIssue(s.db.QueryRowContext(ctx, `
		SELECT `+issueSelectColumns+`
		FROM issues
		WHERE id = $1
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &issue, nil
}

// Create inserts an issue. For high and critical severities a triage task
// is created in the same transaction — the pair commits or rolls back
// together, never half-written.
func (s *IssueStore) Create(ctx context.Context, params IssueParams) (*Issue, *Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	issue, err := scanIssue(tx.QueryRowContext(ctx, `
		INSERT INTO issues (facility_id, zone, category, severity, description,
		                    reporter_anonymous, reporter_name, reporter_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+issueSelectColumns+`
	`,
		params.FacilityID,
		strings.TrimSpace(params.Zone),
		strings.TrimSpace(params.Category),
		string(params.Severity),
		params.Description,
		params.ReporterAnonymous,
		params.ReporterName,
		params.ReporterContact,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create issue: %w", err)
	}

	var task *Task
	if params.Severity == models.SeverityHigh || params.Severity == models.SeverityCritical {
		minutes := int(sla.Minutes(params.Severity).Minutes())
		created, taskErr := scanTask(tx.QueryRowContext(ctx, `
			INSERT INTO tasks (title, description, facility_id, zone, priority, due_at, sla_minutes)
			VALUES ($1, $2, $3, $4, $5, NOW() + $6 * INTERVAL '1 minute', $6)
			RETURNING `+taskSelectColumns+`
		`,
			fmt.Sprintf("Triage %s issue in %s", issue.Severity, issue.Zone),
			issue.Description,
			issue.FacilityID,
			issue.Zone,
			string(models.PriorityHigh),
			minutes,
		))
		if taskErr != nil {
			return nil, nil, fmt.Errorf("failed to create triage task: %w", taskErr)
		}
		task = &created
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit issue create: %w", err)
	}
	return &issue, task, nil
}

// Assign sets the assignee and moves an open issue to assigned.
func (s *IssueStore) Assign(ctx context.Context, id, assigneeID string) (*Issue, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanIssue(tx.QueryRowContext(ctx, `
		SELECT `+issueSelectColumns+` FROM issues WHERE id = $1 FOR UPDATE
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load issue for assignment: %w", err)
	}

	if !current.Status.CanTransition(models.IssueAssigned) {
		return nil, ErrInvalidTransition
	}

	issue, err := scanIssue(tx.QueryRowContext(ctx, `
		UPDATE issues
		SET assignee_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+issueSelectColumns+`
	`, current.ID, strings.TrimSpace(assigneeID), string(models.IssueAssigned)))
	if err != nil {
		return nil, fmt.Errorf("failed to assign issue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit issue assignment: %w", err)
	}
	return &issue, nil
}

// Transition moves an issue forward one step and stamps resolution/closure.
func (s *IssueStore) Transition(ctx context.Context, id string, to models.IssueStatus) (*Issue, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanIssue(tx.QueryRowContext(ctx, `
		SELECT `+issueSelectColumns+` FROM issues WHERE id = $1 FOR UPDATE
	`, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load issue for transition: %w", err)
	}

	if !current.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	stamp := ""
	switch to {
	case models.IssueResolved:
		stamp = ", resolved_at = NOW()"
	case models.IssueClosed:
		stamp = ", closed_at = NOW()"
	}

	issue, err := scanIssue(tx.QueryRowContext(ctx, `
		UPDATE issues
		SET status = $2, updated_at = NOW()`+stamp+`
		WHERE id = $1
		RETURNING `+issueSelectColumns+`
	`, current.ID, string(to)))
	if err != nil {
		return nil, fmt.Errorf("failed to transition issue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit issue transition: %w", err)
	}
	return &issue, nil
}

// CountOpenBySeverity returns non-terminal issue counts keyed by severity,
// optionally scoped to a zone.
func (s *IssueStore) CountOpenBySeverity(ctx context.Context, zone string) (map[models.IssueSeverity]int, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM issues
		WHERE status NOT IN ('resolved', 'closed')`
	args := []interface{}{}
	if zone = strings.TrimSpace(zone); zone != "" {
		args = append(args, zone)
		query += ` AND zone = $1`
	}
	query += ` GROUP BY severity`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count open issues: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.IssueSeverity]int)
	for rows.Next() {
		var severity models.IssueSeverity
		var n int
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, fmt.Errorf("failed to scan issue count: %w", err)
		}
		counts[severity] = n
	}
	return counts, rows.Err()
}

func scanIssue(row rowScanner) (Issue, error) {
	var issue Issue
	err := row.Scan(
		&issue.ID,
		&issue.FacilityID,
		&issue.Zone,
		&issue.Category,
		&issue.Severity,
		&issue.Description,
		&issue.ReporterAnonymous,
		&issue.ReporterName,
		&issue.ReporterContact,
		&issue.Status,
		&issue.AssigneeID,
		&issue.ReportedAt,
		&issue.ResolvedAt,
		&issue.ClosedAt,
		&issue.UpdatedAt,
	)
	return issue, err
}
