package models

import "time"

// Audit actions recorded by the service. Wire form is the lowercase string.
const (
	AuditActionCreate    = "create"
	AuditActionUpdate    = "update"
	AuditActionDelete    = "delete"
	AuditActionPublish   = "publish"
	AuditActionUnpublish = "unpublish"
	AuditActionArchive   = "archive"
	AuditActionUnarchive = "unarchive"
	AuditActionAutoBuild = "auto_build"
	AuditActionExport    = "export"
	AuditActionLogin     = "login"
	AuditActionLogout    = "logout"
)

// Audited entity kinds.
const (
	AuditEntitySchedule   = "schedule"
	AuditEntityAssignment = "assignment"
	AuditEntityCenter     = "center"
	AuditEntityShift      = "shift"
	AuditEntityCoverage   = "coverage_template"
	AuditEntityDoctor     = "doctor"
	AuditEntityLeave      = "leave"
	AuditEntityUser       = "user"
	AuditEntityHoliday    = "holiday"
)

// AuditLog represents an audit trail record. Old and new values are
// stored as raw JSON blobs.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter defines filter criteria for browsing the audit trail.
type AuditFilter struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
