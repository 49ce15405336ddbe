package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, p pagination.Pagination) ([]*Project, *pagination.PageInfo, error)

	// UpdateCAS persists the given record guarded by its current version,
	// bumping version and updated_at. Returns ErrVersionConflict when the
	// stored version moved.
	UpdateCAS(ctx context.Context, db *gorm.DB, project *Project) error

	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListSchedulingErrors(ctx context.Context, db *gorm.DB, limit int) ([]*Project, error)
}
