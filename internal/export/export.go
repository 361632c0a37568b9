// Package export writes admin data as CSV. Fields containing separators,
// quotes, or newlines are escaped per RFC 4180 rather than joined naively.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/groundcrewhq/groundcrew/internal/store"
)

// StaffCSV writes one row per staff member.
func StaffCSV(w io.Writer, staff []store.StaffMember) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "phone", "email", "role", "shift", "zone", "on_duty", "active", "team_ids"}); err != nil {
		return fmt.Errorf("failed to write staff header: %w", err)
	}
	for _, member := range staff {
		email := ""
		if member.Email != nil {
			email = *member.Email
		}
		row := []string{
			member.ID,
			member.Name,
			member.Phone,
			email,
			string(member.Role),
			string(member.Shift),
			member.Zone,
			strconv.FormatBool(member.OnDuty),
			strconv.FormatBool(member.Active),
			strings.Join(member.TeamIDs, " "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write staff row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// TasksCSV writes one row per task.
func TasksCSV(w io.Writer, tasks []store.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "zone", "priority", "status", "sla_minutes", "due_at", "created_at"}); err != nil {
		return fmt.Errorf("failed to write task header: %w", err)
	}
	for _, task := range tasks {
		row := []string{
			task.ID,
			task.Title,
			task.Zone,
			string(task.Priority),
			string(task.Status),
			strconv.Itoa(task.SLAMinutes),
			formatTimePtr(task.DueAt),
			task.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write task row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// IssuesCSV writes one row per issue.
func IssuesCSV(w io.Writer, issues []store.Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "zone", "category", "severity", "status", "description", "reported_at", "resolved_at"}); err != nil {
		return fmt.Errorf("failed to write issue header: %w", err)
	}
	for _, issue := range issues {
		row := []string{
			issue.ID,
			issue.Zone,
			issue.Category,
			string(issue.Severity),
			string(issue.Status),
			issue.Description,
			issue.ReportedAt.UTC().Format(time.RFC3339),
			formatTimePtr(issue.ResolvedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write issue row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
