// Package sla derives issue resolution deadlines from severity.
//
// The deadline is computed fresh on every read; nothing here is persisted,
// so a breached issue stays breached no matter how long ago the deadline
// passed.
package sla

import (
	"time"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// Status is the SLA state of an issue at a point in time.
type Status string

const (
	StatusMet      Status = "met"
	StatusBreached Status = "breached"
	StatusCritical Status = "critical"
	StatusOnTrack  Status = "on-track"
)

// criticalWindow is how close to the deadline an issue must be before it
// is flagged critical.
const criticalWindow = 60 * time.Minute

var severityMinutes = map[models.IssueSeverity]time.Duration{
	models.SeverityCritical: 60 * time.Minute,
	models.SeverityHigh:     120 * time.Minute,
	models.SeverityMedium:   240 * time.Minute,
	models.SeverityLow:      480 * time.Minute,
}

// Minutes returns the resolution window for a severity. Unknown severities
// get the low-severity window.
func Minutes(severity models.IssueSeverity) time.Duration {
	if d, ok := severityMinutes[severity]; ok {
		return d
	}
	return severityMinutes[models.SeverityLow]
}

// Deadline returns when an issue reported at the given time must be resolved.
func Deadline(reportedAt time.Time, severity models.IssueSeverity) time.Time {
	return reportedAt.Add(Minutes(severity))
}

// Evaluate returns the SLA status of an issue as of now.
func Evaluate(severity models.IssueSeverity, reportedAt time.Time, status models.IssueStatus, now time.Time) Status {
	return EvaluateDeadline(Deadline(reportedAt, severity), status.Terminal(), now)
}

// EvaluateDeadline returns the SLA status for an arbitrary deadline, for
// work items that carry an explicit due time rather than a severity.
func EvaluateDeadline(deadline time.Time, terminal bool, now time.Time) Status {
	if terminal {
		return StatusMet
	}
	remaining := deadline.Sub(now)
	switch {
	case remaining < 0:
		return StatusBreached
	case remaining < criticalWindow:
		return StatusCritical
	default:
		return StatusOnTrack
	}
}
