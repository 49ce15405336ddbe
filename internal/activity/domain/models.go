// Package domain contains types for the project activity log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Activity types.
const (
	TypeProjectCreated   = "project_created"
	TypeProjectDeleted   = "project_deleted"
	TypeProjectResumed   = "project_resumed"
	TypeProjectPaused    = "project_paused"
	TypeManualRun        = "automation_manual_run"
	TypeEmailSent        = "email_sent"
	TypeSchedulingRepair = "scheduling_repair"
	TypeError            = "error"
)

// Activity statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInfo    = "info"
	StatusStarted = "started"
)

// Activity is a single append-only log entry. Entries are never updated or
// deleted; they survive deletion of the project they reference.
type Activity struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ProjectID   snowflake.ID `gorm:"column:project_id;not null;index" json:"project_id"`
	UserID      snowflake.ID `gorm:"column:user_id;not null;index" json:"user_id"`
	Type        string       `gorm:"column:type;type:text;not null" json:"type"`
	Title       string       `gorm:"column:title;type:text;not null" json:"title"`
	Description string       `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      string       `gorm:"column:status;type:text;not null" json:"status"`
	OccurredAt  time.Time    `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
}

// TableName sets the database table name.
func (Activity) TableName() string { return "activities" }
