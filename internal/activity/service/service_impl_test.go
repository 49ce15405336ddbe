package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/activity/domain"
	"github.com/reposcribe/reposcribe/internal/activity/repository"
	"github.com/reposcribe/reposcribe/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, fc *clock.FakeClock) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Activity{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.Provide(),
	})
}

func TestRecordAndListByProject(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, fc)

	svc.Record(context.Background(), domain.Entry{
		ProjectID: 10,
		UserID:    1,
		Type:      domain.TypeProjectCreated,
		Title:     "Project created",
		Status:    domain.StatusSuccess,
	})
	fc.Advance(time.Minute)
	svc.Record(context.Background(), domain.Entry{
		ProjectID: 10,
		UserID:    1,
		Type:      domain.TypeManualRun,
		Title:     "Manual run",
		Status:    domain.StatusStarted,
	})
	svc.Record(context.Background(), domain.Entry{
		ProjectID: 11,
		UserID:    2,
		Type:      domain.TypeProjectCreated,
		Title:     "Other project",
	})

	got, err := svc.ListByProject(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].Type != domain.TypeManualRun || got[1].Type != domain.TypeProjectCreated {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestRecordDefaultsStatus(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, fc)

	svc.Record(context.Background(), domain.Entry{
		ProjectID: 7,
		UserID:    1,
		Type:      domain.TypeEmailSent,
		Title:     "Report delivered",
	})

	got, err := svc.ListByUser(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Status != domain.StatusInfo {
		t.Fatalf("unexpected entries %+v", got)
	}
}
