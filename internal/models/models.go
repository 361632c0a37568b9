// Package models defines the closed domain types shared across GroundCrew.
//
// Note: The entity structs live in the store package alongside their data
// access methods. This package provides the enum types and the transition
// tables that replace ad-hoc status strings.
package models

// Role is a staff member's access role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor, RoleStaff:
		return true
	}
	return false
}

// ShiftColor is the color-coded shift window a staff member works.
// Red, orange, and green correspond roughly to morning, afternoon, night.
type ShiftColor string

const (
	ShiftRed    ShiftColor = "red"
	ShiftOrange ShiftColor = "orange"
	ShiftGreen  ShiftColor = "green"
)

// Valid reports whether the shift color is a known value.
func (s ShiftColor) Valid() bool {
	switch s {
	case ShiftRed, ShiftOrange, ShiftGreen:
		return true
	}
	return false
}

// FacilityType classifies a tracked physical asset.
type FacilityType string

const (
	FacilityToilet   FacilityType = "toilet"
	FacilityBin      FacilityType = "bin"
	FacilityWater    FacilityType = "water"
	FacilityHelpdesk FacilityType = "helpdesk"
)

// Valid reports whether the facility type is a known value.
func (t FacilityType) Valid() bool {
	switch t {
	case FacilityToilet, FacilityBin, FacilityWater, FacilityHelpdesk:
		return true
	}
	return false
}

// FacilityStatus is the operational state of a facility.
type FacilityStatus string

const (
	FacilityAvailable   FacilityStatus = "available"
	FacilityOccupied    FacilityStatus = "occupied"
	FacilityMaintenance FacilityStatus = "maintenance"
	FacilityFull        FacilityStatus = "full"
	FacilityOutOfOrder  FacilityStatus = "out-of-order"
)

// Valid reports whether the facility status is a known value.
func (s FacilityStatus) Valid() bool {
	switch s {
	case FacilityAvailable, FacilityOccupied, FacilityMaintenance, FacilityFull, FacilityOutOfOrder:
		return true
	}
	return false
}

// CanTransition reports whether a facility may move to the given status.
// Any move between distinct known statuses is allowed; operators flip
// facilities freely as conditions on the ground change.
func (s FacilityStatus) CanTransition(to FacilityStatus) bool {
	return s.Valid() && to.Valid() && s != to
}

// TaskPriority orders maintenance and triage work.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is a known value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is a strictly forward-moving task state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskVerified   TaskStatus = "verified"
)

// Valid reports whether the task status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskVerified:
		return true
	}
	return false
}

var taskTransitions = map[TaskStatus]TaskStatus{
	TaskPending:    TaskInProgress,
	TaskInProgress: TaskCompleted,
	TaskCompleted:  TaskVerified,
}

// CanTransition reports whether a task may move to the given status.
// Tasks only move forward; there is no revert path.
func (s TaskStatus) CanTransition(to TaskStatus) bool {
	return taskTransitions[s] == to
}

// IssueSeverity ranks a reported issue for triage.
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

// Valid reports whether the severity is a known value.
func (s IssueSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IssueStatus is a strictly forward-moving issue state.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueAssigned   IssueStatus = "assigned"
	IssueInProgress IssueStatus = "in-progress"
	IssueResolved   IssueStatus = "resolved"
	IssueClosed     IssueStatus = "closed"
)

// Valid reports whether the issue status is a known value.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueAssigned, IssueInProgress, IssueResolved, IssueClosed:
		return true
	}
	return false
}

var issueTransitions = map[IssueStatus]IssueStatus{
	IssueOpen:       IssueAssigned,
	IssueAssigned:   IssueInProgress,
	IssueInProgress: IssueResolved,
	IssueResolved:   IssueClosed,
}

// CanTransition reports whether an issue may move to the given status.
func (s IssueStatus) CanTransition(to IssueStatus) bool {
	return issueTransitions[s] == to
}

// Terminal reports whether the issue no longer counts against its SLA.
func (s IssueStatus) Terminal() bool {
	return s == IssueResolved || s == IssueClosed
}

// NotificationChannel selects the delivery channel for a notification.
type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelSMS      NotificationChannel = "sms"
	ChannelEmail    NotificationChannel = "email"
)

// Valid reports whether the channel is a known value.
func (c NotificationChannel) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelSMS, ChannelEmail:
		return true
	}
	return false
}

// NotificationStatus tracks a queued notification through dispatch.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// Valid reports whether the notification status is a known value.
func (s NotificationStatus) Valid() bool {
	switch s {
	case NotificationPending, NotificationSent, NotificationDelivered, NotificationFailed:
		return true
	}
	return false
}

// CanTransition reports whether a notification may move to the given status.
func (s NotificationStatus) CanTransition(to NotificationStatus) bool {
	switch s {
	case NotificationPending:
		return to == NotificationSent || to == NotificationFailed
	case NotificationSent:
		return to == NotificationDelivered || to == NotificationFailed
	}
	return false
}

// AdType classifies a published announcement.
type AdType string

const (
	AdAnnouncement AdType = "announcement"
	AdSponsored    AdType = "sponsored"
	AdEmergency    AdType = "emergency"
)

// Valid reports whether the ad type is a known value.
func (t AdType) Valid() bool {
	switch t {
	case AdAnnouncement, AdSponsored, AdEmergency:
		return true
	}
	return false
}

// AdStatus is the lifecycle state of an ad.
type AdStatus string

const (
	AdDraft     AdStatus = "draft"
	AdPublished AdStatus = "published"
	AdExpired   AdStatus = "expired"
)

// Valid reports whether the ad status is a known value.
func (s AdStatus) Valid() bool {
	switch s {
	case AdDraft, AdPublished, AdExpired:
		return true
	}
	return false
}

// CanTransition reports whether an ad may move to the given status.
func (s AdStatus) CanTransition(to AdStatus) bool {
	switch s {
	case AdDraft:
		return to == AdPublished
	case AdPublished:
		return to == AdExpired
	}
	return false
}

// AuditAction names a recorded change to a staff member.
type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditDeactivate AuditAction = "deactivate"
	AuditActivate   AuditAction = "activate"
)

// HeadcountSource records how a crowd headcount was obtained.
type HeadcountSource string

const (
	SourceManual    HeadcountSource = "manual"
	SourceAPI       HeadcountSource = "api"
	SourceEstimated HeadcountSource = "estimated"
)

// Valid reports whether the headcount source is a known value.
func (s HeadcountSource) Valid() bool {
	switch s {
	case SourceManual, SourceAPI, SourceEstimated:
		return true
	}
	return false
}

// AssigneeType says whether a task is assigned to a single staff member or a team.
type AssigneeType string

const (
	AssigneeStaff AssigneeType = "staff"
	AssigneeTeam  AssigneeType = "team"
)

// Valid reports whether the assignee type is a known value.
func (t AssigneeType) Valid() bool {
	return t == AssigneeStaff || t == AssigneeTeam
}
