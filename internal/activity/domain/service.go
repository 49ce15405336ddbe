package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Entry describes an event to record.
type Entry struct {
	ProjectID   snowflake.ID
	UserID      snowflake.ID
	Type        string
	Title       string
	Description string
	Status      string
}

// Service records and lists activity log entries. Record failures must not
// abort the operation that produced the event.
type Service interface {
	Record(ctx context.Context, entry Entry)
	ListByProject(ctx context.Context, projectID snowflake.ID, limit int) ([]Activity, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]Activity, error)
}
