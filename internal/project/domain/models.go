// Package domain contains the automation project model and service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Project statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// Automation types.
const (
	AutomationCommitSummary = "commit_summary"
	AutomationWeeklyDigest  = "weekly_digest"
	AutomationReleaseNotes  = "release_notes"
)

// Project links a repository to a scheduled email-report automation. The repo
// snapshot columns are captured from the metadata resolver at creation time
// and never mutated afterwards. The record carries no provider credentials;
// access tokens are resolved from the auth identity store on demand.
type Project struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID snowflake.ID `gorm:"column:user_id;not null;index:idx_projects_user_id_created_at" json:"user_id"`

	RepoID          int64  `gorm:"column:repo_id;not null" json:"repo_id"`
	RepoName        string `gorm:"column:repo_name;type:text;not null" json:"repo_name"`
	RepoOwner       string `gorm:"column:repo_owner;type:text;not null" json:"repo_owner"`
	RepoURL         string `gorm:"column:repo_url;type:text;not null" json:"repo_url"`
	RepoDescription string `gorm:"column:repo_description;type:text" json:"repo_description,omitempty"`
	RepoLanguage    string `gorm:"column:repo_language;type:text" json:"repo_language,omitempty"`
	RepoPrivate     bool   `gorm:"column:repo_private;not null;default:false" json:"repo_private"`

	AutomationType string         `gorm:"column:automation_type;type:text;not null" json:"automation_type"`
	Frequency      string         `gorm:"column:frequency;type:text;not null" json:"frequency"`
	CronSchedule   string         `gorm:"column:cron_schedule;type:text;not null;default:''" json:"cron_schedule"`
	Recipients     datatypes.JSON `gorm:"column:recipients;not null" json:"recipients"`

	Status          string     `gorm:"column:status;type:text;not null;default:'active'" json:"status"`
	LastRun         *time.Time `gorm:"column:last_run" json:"last_run,omitempty"`
	NextRun         *time.Time `gorm:"column:next_run" json:"next_run,omitempty"`
	EmailsSent      int64      `gorm:"column:emails_sent;not null;default:0" json:"emails_sent"`
	SchedulingError bool       `gorm:"column:scheduling_error;not null;default:false" json:"scheduling_error"`
	Version         int64      `gorm:"column:version;not null;default:1" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP;index:idx_projects_user_id_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }
