package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/groundcrewhq/groundcrew/internal/models"
)

const testDBURLKey = "GROUNDCREW_TEST_DATABASE_URL"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	connStr := os.Getenv(testDBURLKey)
	if connStr == "" {
		t.Skipf("set %s to a dedicated test database", testDBURLKey)
	}

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	_, err = db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto")
	require.NoError(t, err)

	migrationsDir, err := filepath.Abs(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)

	m, err := migrate.New("file://"+migrationsDir, connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = m.Close()
		_ = db.Close()
	})

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	return db
}

func TestStaffLifecycleWithAudit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	staffStore := NewStaffStore(db)
	auditStore := NewAuditStore(db)

	email := "asha@groundcrew.example"
	member, err := staffStore.Create(ctx, StaffParams{
		Name:  "Asha Verma",
		Phone: "+919876543210",
		Email: &email,
		Role:  models.RoleSupervisor,
		Shift: models.ShiftOrange,
		Zone:  "North",
	}, "admin@groundcrew.example")
	require.NoError(t, err)
	require.True(t, member.Active)
	require.False(t, member.OnDuty)

	member, err = staffStore.SetOnDuty(ctx, member.ID, true)
	require.NoError(t, err)
	require.True(t, member.OnDuty)

	member, err = staffStore.Update(ctx, member.ID, StaffParams{
		Name:  "Asha Verma",
		Phone: "+919876543210",
		Email: &email,
		Role:  models.RoleManager,
		Shift: models.ShiftOrange,
		Zone:  "North",
	}, "admin@groundcrew.example")
	require.NoError(t, err)
	require.Equal(t, models.RoleManager, member.Role)

	// Deactivation is a soft delete: the row survives and on-duty resets.
	member, err = staffStore.SetActive(ctx, member.ID, false, "admin@groundcrew.example")
	require.NoError(t, err)
	require.False(t, member.Active)
	require.False(t, member.OnDuty)

	trail, err := auditStore.ListForStaff(ctx, member.ID, 10)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	require.Equal(t, models.AuditDeactivate, trail[0].Action)
	require.Equal(t, models.AuditUpdate, trail[1].Action)
	require.Equal(t, models.AuditCreate, trail[2].Action)
}

func TestFacilityTransitionCreatesFollowUpTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	facilityStore := NewFacilityStore(db)
	taskStore := NewTaskStore(db)

	facility, err := facilityStore.Create(ctx, FacilityParams{
		Code: "TLT-N-014",
		Type: models.FacilityToilet,
		Zone: "North",
	})
	require.NoError(t, err)
	require.Equal(t, models.FacilityAvailable, facility.Status)

	before := time.Now()
	facility, task, err := facilityStore.Transition(ctx, facility.ID, models.FacilityMaintenance)
	require.NoError(t, err)
	require.Equal(t, models.FacilityMaintenance, facility.Status)
	require.NotNil(t, task)
	require.Equal(t, models.PriorityHigh, task.Priority)
	require.Equal(t, 60, task.SLAMinutes)
	require.NotNil(t, task.DueAt)
	require.WithinDuration(t, before.Add(60*time.Minute), *task.DueAt, 30*time.Second)

	// Exactly one follow-up task exists for the facility.
	tasks, err := taskStore.List(ctx, TaskFilter{FacilityID: facility.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	facility, task, err = facilityStore.Transition(ctx, facility.ID, models.FacilityFull)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, models.PriorityMedium, task.Priority)
	require.Equal(t, 120, task.SLAMinutes)

	// Moving back to available creates nothing.
	_, task, err = facilityStore.Transition(ctx, facility.ID, models.FacilityAvailable)
	require.NoError(t, err)
	require.Nil(t, task)

	tasks, err = taskStore.List(ctx, TaskFilter{FacilityID: facility.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
}

func TestFacilityDuplicateCodeCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	facilityStore := NewFacilityStore(db)

	_, err := facilityStore.Create(ctx, FacilityParams{Code: "BIN-E-001", Type: models.FacilityBin, Zone: "East"})
	require.NoError(t, err)

	_, err = facilityStore.Create(ctx, FacilityParams{Code: "bin-e-001", Type: models.FacilityBin, Zone: "East"})
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestIssueCreateSpawnsTriageTask(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	issueStore := NewIssueStore(db)

	// Low severity: no task.
	issue, task, err := issueStore.Create(ctx, IssueParams{
		Zone:              "East",
		Category:          "cleanliness",
		Severity:          models.SeverityLow,
		Description:       "Overflowing bin near gate 4",
		ReporterAnonymous: true,
	})
	require.NoError(t, err)
	require.Nil(t, task)
	require.Equal(t, models.IssueOpen, issue.Status)

	// Critical severity: a triage task commits with the issue.
	issue, task, err = issueStore.Create(ctx, IssueParams{
		Zone:        "North",
		Category:    "safety",
		Severity:    models.SeverityCritical,
		Description: "Crowd crush risk at ghat steps",
	})
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, models.PriorityHigh, task.Priority)
	require.Equal(t, 60, task.SLAMinutes)
	require.Equal(t, issue.Zone, task.Zone)
}

func TestIssueForwardTransitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	issueStore := NewIssueStore(db)

	issue, _, err := issueStore.Create(ctx, IssueParams{
		Zone:        "West",
		Category:    "water",
		Severity:    models.SeverityMedium,
		Description: "Water point pressure low",
	})
	require.NoError(t, err)

	// Skipping ahead is rejected.
	_, err = issueStore.Transition(ctx, issue.ID, models.IssueResolved)
	require.ErrorIs(t, err, ErrInvalidTransition)

	issue, err = issueStore.Assign(ctx, issue.ID, "00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	require.Equal(t, models.IssueAssigned, issue.Status)

	issue, err = issueStore.Transition(ctx, issue.ID, models.IssueInProgress)
	require.NoError(t, err)

	issue, err = issueStore.Transition(ctx, issue.ID, models.IssueResolved)
	require.NoError(t, err)
	require.NotNil(t, issue.ResolvedAt)

	issue, err = issueStore.Transition(ctx, issue.ID, models.IssueClosed)
	require.NoError(t, err)
	require.NotNil(t, issue.ClosedAt)

	// Closed is terminal.
	_, err = issueStore.Transition(ctx, issue.ID, models.IssueOpen)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTaskForwardTransitionsStampTimes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	taskStore := NewTaskStore(db)

	task, err := taskStore.Create(ctx, TaskParams{
		Title:      "Restock water point",
		Zone:       "South",
		Priority:   models.PriorityLow,
		SLAMinutes: 240,
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskPending, task.Status)

	_, err = taskStore.Transition(ctx, task.ID, models.TaskVerified)
	require.ErrorIs(t, err, ErrInvalidTransition)

	task, err = taskStore.Transition(ctx, task.ID, models.TaskInProgress)
	require.NoError(t, err)
	require.NotNil(t, task.StartedAt)

	task, err = taskStore.Transition(ctx, task.ID, models.TaskCompleted)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)

	task, err = taskStore.Transition(ctx, task.ID, models.TaskVerified)
	require.NoError(t, err)
	require.NotNil(t, task.VerifiedAt)

	// No revert path.
	_, err = taskStore.Transition(ctx, task.ID, models.TaskPending)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestShiftAssignedCountForZone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	shiftStore := NewShiftStore(db)

	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	staffA := "00000000-0000-0000-0000-00000000000a"
	staffB := "00000000-0000-0000-0000-00000000000b"
	staffC := "00000000-0000-0000-0000-00000000000c"

	_, err := shiftStore.Create(ctx, ShiftParams{
		Zone: "North", Name: "Morning", Date: date,
		StartTime: "06:00", EndTime: "14:00",
		StaffIDs: []string{staffA, staffB}, RequiredStaff: 10,
	})
	require.NoError(t, err)

	// staffB appears twice across shifts but counts once.
	_, err = shiftStore.Create(ctx, ShiftParams{
		Zone: "North", Name: "Afternoon", Date: date,
		StartTime: "14:00", EndTime: "22:00",
		StaffIDs: []string{staffB, staffC}, RequiredStaff: 10,
	})
	require.NoError(t, err)

	count, err := shiftStore.AssignedCountForZone(ctx, "North", date)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Other zones and dates are untouched.
	count, err = shiftStore.AssignedCountForZone(ctx, "South", date)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestHeadcountLatestDrivesCoverage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	headcountStore := NewHeadcountStore(db)

	base := time.Date(2026, 2, 14, 6, 0, 0, 0, time.UTC)
	_, err := headcountStore.Record(ctx, HeadcountParams{
		Zone: "North", Count: 8000, Source: models.SourceManual, Confidence: 0.8, RecordedAt: base,
	})
	require.NoError(t, err)
	_, err = headcountStore.Record(ctx, HeadcountParams{
		Zone: "North", Count: 12000, Source: models.SourceAPI, Confidence: 0.95, RecordedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)

	latest, err := headcountStore.LatestForZone(ctx, "North")
	require.NoError(t, err)
	require.Equal(t, 12000, latest.Count)
	require.Equal(t, models.SourceAPI, latest.Source)
}

func TestAdLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	adStore := NewAdStore(db)

	ad, err := adStore.Create(ctx, AdParams{
		Title:      "Lost and found at helpdesk 3",
		Type:       models.AdAnnouncement,
		ValidFrom:  time.Now(),
		ValidUntil: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.AdDraft, ad.Status)

	_, err = adStore.Transition(ctx, ad.ID, models.AdExpired)
	require.ErrorIs(t, err, ErrInvalidTransition)

	ad, err = adStore.Transition(ctx, ad.ID, models.AdPublished)
	require.NoError(t, err)

	// Published ads can't be deleted, only expired.
	require.ErrorIs(t, adStore.Delete(ctx, ad.ID), ErrNotFound)

	ad, err = adStore.Transition(ctx, ad.ID, models.AdExpired)
	require.NoError(t, err)
	require.Equal(t, models.AdExpired, ad.Status)
}
