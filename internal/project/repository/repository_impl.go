package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the project repository.
func Provide() domain.Repository { return &repository{} }

func (r *repository) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Create(project).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	if err := db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *repository) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, p pagination.Pagination) ([]*domain.Project, *pagination.PageInfo, error) {
	limit := p.PageSize
	if limit <= 0 {
		limit = 10
	}

	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if p.PageToken != "" {
		cursor, err := pagination.DecodeCursor(p.PageToken)
		if err != nil {
			return nil, nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, err
		}
		cursorID, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, cursorID)
	}

	var projects []*domain.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(projects, limit, func(p *domain.Project) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        strconv.FormatInt(int64(p.ID), 10),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})
	if len(projects) > limit {
		projects = projects[:limit]
	}
	return projects, pageInfo, nil
}

func (r *repository) UpdateCAS(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	current := project.Version
	project.Version = current + 1

	res := db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ? AND version = ?", project.ID, current).
		Select("status", "cron_schedule", "last_run", "next_run",
			"emails_sent", "scheduling_error", "version", "updated_at").
		Updates(project)
	if res.Error != nil {
		project.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		project.Version = current
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repository) ListSchedulingErrors(ctx context.Context, db *gorm.DB, limit int) ([]*domain.Project, error) {
	if limit <= 0 {
		limit = 50
	}
	var projects []*domain.Project
	err := db.WithContext(ctx).
		Where("scheduling_error = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}
