package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

// StaffAudit is one append-only record of a change to a staff member.
type StaffAudit struct {
	ID        string             `json:"id"`
	StaffID   string             `json:"staff_id"`
	Action    models.AuditAction `json:"action"`
	Snapshot  json.RawMessage    `json:"snapshot"`
	Actor     string             `json:"actor"`
	CreatedAt time.Time          `json:"created_at"`
}

// AuditStore reads the staff audit trail. Writes happen inside the staff
// store's transactions; nothing ever updates or deletes an audit row.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// ListForStaff returns the audit trail for one staff member, newest first.
func (s *AuditStore) ListForStaff(ctx context.Context, staffID string, limit int) ([]StaffAudit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, action, snapshot, actor, created_at
		FROM staff_audit
		WHERE staff_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, strings.TrimSpace(staffID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff audit: %w", err)
	}
	defer rows.Close()

	entries := make([]StaffAudit, 0)
	for rows.Next() {
		var entry StaffAudit
		if err := rows.Scan(&entry.ID, &entry.StaffID, &entry.Action, &entry.Snapshot, &entry.Actor, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff audit: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
