package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
)

// CreateRequest carries everything needed to create an automation project.
// RepoID references the provider repository; its metadata snapshot is
// resolved server-side, never trusted from the client.
type CreateRequest struct {
	RepoID         int64
	AutomationType string
	Frequency      string
	CustomSchedule string
	Recipients     []string
}

// ReconcileReport summarizes one reconciliation pass over records flagged
// with a scheduling inconsistency. Failed counts transient errors that the
// next pass retries; Rejected counts records the scheduler refused outright,
// which stay flagged but are not worth replaying.
type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
	Rejected int `json:"rejected"`
}

// Service is the automation lifecycle manager. Every operation is scoped to
// the acting user; operations on another user's project fail with
// ErrForbidden and never touch the record.
type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*Project, error)
	Get(ctx context.Context, userID, id snowflake.ID) (*Project, error)
	List(ctx context.Context, userID snowflake.ID, p pagination.Pagination) ([]*Project, *pagination.PageInfo, error)
	UpdateStatus(ctx context.Context, userID, id snowflake.ID, status string) (*Project, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
	ManualRun(ctx context.Context, userID, id snowflake.ID) (*time.Time, error)

	// RecordEmailSent is invoked by the execution-service callback after a
	// report is delivered.
	RecordEmailSent(ctx context.Context, id snowflake.ID) (*Project, error)

	// Reconcile replays the external registration for records flagged with
	// scheduling_error and clears the flag on success.
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}
