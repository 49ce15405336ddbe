package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/activity/domain"
	"github.com/reposcribe/reposcribe/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("activity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Record(ctx context.Context, entry domain.Entry) {
	activity := &domain.Activity{
		ID:          s.genID.Generate(),
		ProjectID:   entry.ProjectID,
		UserID:      entry.UserID,
		Type:        entry.Type,
		Title:       entry.Title,
		Description: entry.Description,
		Status:      entry.Status,
		OccurredAt:  s.clock.Now(),
	}
	if activity.Status == "" {
		activity.Status = domain.StatusInfo
	}

	// Logging the event is best-effort. The operation that produced it has
	// already committed.
	if err := s.repo.Insert(ctx, s.db, activity); err != nil {
		s.log.Error("record activity",
			zap.Error(err),
			zap.String("type", entry.Type),
			zap.Int64("project_id", int64(entry.ProjectID)),
		)
	}
}

func (s *service) ListByProject(ctx context.Context, projectID snowflake.ID, limit int) ([]domain.Activity, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{ProjectID: projectID, Limit: limit})
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]domain.Activity, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{UserID: userID, Limit: limit})
}
