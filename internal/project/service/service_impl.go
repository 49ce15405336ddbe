package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	actdomain "github.com/reposcribe/reposcribe/internal/activity/domain"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/clock"
	"github.com/reposcribe/reposcribe/internal/config"
	"github.com/reposcribe/reposcribe/internal/cronjob"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
	"github.com/reposcribe/reposcribe/internal/lock"
	"github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/internal/schedule"
	"github.com/reposcribe/reposcribe/internal/trigger"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Gateway  cronjob.Gateway
	Invoker  trigger.Invoker
	Auth     authdomain.Service
	GitHub   ghdomain.Service
	Activity actdomain.Service
	Locker   *lock.Locker `optional:"true"`
	SchedCfg *config.SchedulingConfigHolder
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	gateway  cronjob.Gateway
	invoker  trigger.Invoker
	auth     authdomain.Service
	github   ghdomain.Service
	activity actdomain.Service
	locker   *lock.Locker
	schedCfg *config.SchedulingConfigHolder
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("project.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		gateway:  p.Gateway,
		invoker:  p.Invoker,
		auth:     p.Auth,
		github:   p.GitHub,
		activity: p.Activity,
		locker:   p.Locker,
		schedCfg: p.SchedCfg,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateRequest) (*domain.Project, error) {
	recipients, err := validateRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}
	if !validAutomationType(req.AutomationType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAutomationType, req.AutomationType)
	}
	cronExpr, err := schedule.Cron(req.Frequency, req.CustomSchedule)
	if err != nil {
		return nil, err
	}

	token, err := s.auth.TokenForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	repo, err := s.github.GetRepoByID(ctx, token, req.RepoID)
	if err != nil {
		return nil, err
	}

	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	project := &domain.Project{
		ID:              s.genID.Generate(),
		UserID:          userID,
		RepoID:          repo.ID,
		RepoName:        repo.Name,
		RepoOwner:       repo.Owner,
		RepoURL:         repo.HTMLURL,
		RepoDescription: repo.Description,
		RepoLanguage:    repo.Language,
		RepoPrivate:     repo.Private,
		AutomationType:  req.AutomationType,
		Frequency:       req.Frequency,
		CronSchedule:    cronExpr,
		Recipients:      recipientsJSON,
		Status:          domain.StatusActive,
		NextRun:         schedule.NextRun(cronExpr, now),
		EmailsSent:      0,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Persist first so a scheduler outage can never lose the record. A
	// failed registration is flagged and repaired by Reconcile.
	if err := s.repo.Insert(ctx, s.db, project); err != nil {
		return nil, err
	}

	var schedErr error
	if cronExpr != "" {
		if err := s.gateway.Register(ctx, project.ID.String(), cronExpr); err != nil {
			s.log.Error("register schedule",
				zap.Error(err),
				zap.Int64("project_id", int64(project.ID)),
			)
			project.SchedulingError = true
			project.UpdatedAt = s.clock.Now()
			if casErr := s.repo.UpdateCAS(ctx, s.db, project); casErr != nil {
				s.log.Error("flag scheduling error", zap.Error(casErr))
			}
			schedErr = domain.ErrSchedulingInconsistency
		}
	}

	s.activity.Record(ctx, actdomain.Entry{
		ProjectID:   project.ID,
		UserID:      userID,
		Type:        actdomain.TypeProjectCreated,
		Title:       "Project created",
		Description: fmt.Sprintf("%s/%s, %s reports (%s)", repo.Owner, repo.Name, req.AutomationType, req.Frequency),
		Status:      actdomain.StatusSuccess,
	})

	return project, schedErr
}

func (s *service) Get(ctx context.Context, userID, id snowflake.ID) (*domain.Project, error) {
	return s.findOwned(ctx, userID, id)
}

func (s *service) List(ctx context.Context, userID snowflake.ID, p pagination.Pagination) ([]*domain.Project, *pagination.PageInfo, error) {
	return s.repo.ListByUser(ctx, s.db, userID, p)
}

func (s *service) UpdateStatus(ctx context.Context, userID, id snowflake.ID, status string) (*domain.Project, error) {
	if status != domain.StatusActive && status != domain.StatusPaused {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	project, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project.Status == status {
		return project, nil
	}

	project.Status = status
	project.UpdatedAt = s.clock.Now()
	if status == domain.StatusActive {
		project.NextRun = schedule.NextRun(project.CronSchedule, project.UpdatedAt)
	} else {
		project.NextRun = nil
	}
	if err := s.repo.UpdateCAS(ctx, s.db, project); err != nil {
		return nil, err
	}

	var gatewayErr error
	if status == domain.StatusActive {
		// Re-register the stored expression; never retranslate on resume.
		if project.CronSchedule != "" {
			gatewayErr = s.gateway.Register(ctx, project.ID.String(), project.CronSchedule)
		}
	} else {
		gatewayErr = s.gateway.Unregister(ctx, project.ID.String())
		if errors.Is(gatewayErr, cronjob.ErrNotFound) {
			gatewayErr = nil
		}
	}

	var schedErr error
	if gatewayErr != nil {
		s.log.Error("sync schedule",
			zap.Error(gatewayErr),
			zap.Int64("project_id", int64(project.ID)),
			zap.String("status", status),
		)
		project.SchedulingError = true
		project.UpdatedAt = s.clock.Now()
		if casErr := s.repo.UpdateCAS(ctx, s.db, project); casErr != nil {
			s.log.Error("flag scheduling error", zap.Error(casErr))
		}
		schedErr = domain.ErrSchedulingInconsistency
	}

	entryType := actdomain.TypeProjectResumed
	title := "Automation resumed"
	if status == domain.StatusPaused {
		entryType = actdomain.TypeProjectPaused
		title = "Automation paused"
	}
	s.activity.Record(ctx, actdomain.Entry{
		ProjectID: project.ID,
		UserID:    userID,
		Type:      entryType,
		Title:     title,
		Status:    actdomain.StatusSuccess,
	})

	return project, schedErr
}

func (s *service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	project, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	// Unregister before deleting the record. If the gateway is down the
	// record survives and the delete can be retried; a record deleted first
	// would orphan the external job forever.
	if err := s.gateway.Unregister(ctx, project.ID.String()); err != nil && !errors.Is(err, cronjob.ErrNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, project.ID); err != nil {
		return err
	}

	s.activity.Record(ctx, actdomain.Entry{
		ProjectID:   project.ID,
		UserID:      userID,
		Type:        actdomain.TypeProjectDeleted,
		Title:       "Project deleted",
		Description: fmt.Sprintf("%s/%s", project.RepoOwner, project.RepoName),
		Status:      actdomain.StatusInfo,
	})
	return nil
}

func (s *service) ManualRun(ctx context.Context, userID, id snowflake.ID) (*time.Time, error) {
	project, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	lockKey := "reposcribe:run:" + project.ID.String()
	token, err := s.locker.Acquire(ctx, lockKey, s.schedCfg.Current().ManualRunLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, domain.ErrRunInProgress
		}
		return nil, err
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey, token); err != nil {
			s.log.Warn("release run lock", zap.Error(err))
		}
	}()

	now := s.clock.Now()
	project.LastRun = &now
	project.UpdatedAt = now
	if err := s.repo.UpdateCAS(ctx, s.db, project); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, domain.ErrRunInProgress
		}
		return nil, err
	}

	s.activity.Record(ctx, actdomain.Entry{
		ProjectID: project.ID,
		UserID:    userID,
		Type:      actdomain.TypeManualRun,
		Title:     "Manual run requested",
		Status:    actdomain.StatusStarted,
	})

	if err := s.invoker.Trigger(ctx, project.ID.String()); err != nil {
		s.activity.Record(ctx, actdomain.Entry{
			ProjectID:   project.ID,
			UserID:      userID,
			Type:        actdomain.TypeError,
			Title:       "Manual run failed",
			Description: "execution service did not accept the trigger",
			Status:      actdomain.StatusError,
		})
		return nil, err
	}

	return &now, nil
}

func (s *service) RecordEmailSent(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	project.EmailsSent++
	project.LastRun = &now
	if project.Status == domain.StatusActive {
		project.NextRun = schedule.NextRun(project.CronSchedule, now)
	}
	project.UpdatedAt = now
	if err := s.repo.UpdateCAS(ctx, s.db, project); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actdomain.Entry{
		ProjectID:   project.ID,
		UserID:      project.UserID,
		Type:        actdomain.TypeEmailSent,
		Title:       "Report delivered",
		Description: fmt.Sprintf("%d recipients", recipientCount(project)),
		Status:      actdomain.StatusSuccess,
	})
	return project, nil
}

func (s *service) Reconcile(ctx context.Context) (*domain.ReconcileReport, error) {
	batch := s.schedCfg.Current().ReconcileBatchSize
	projects, err := s.repo.ListSchedulingErrors(ctx, s.db, batch)
	if err != nil {
		return nil, err
	}

	report := &domain.ReconcileReport{Scanned: len(projects)}
	for _, project := range projects {
		var syncErr error
		if project.Status == domain.StatusActive && project.CronSchedule != "" {
			syncErr = s.gateway.Register(ctx, project.ID.String(), project.CronSchedule)
		} else {
			syncErr = s.gateway.Unregister(ctx, project.ID.String())
			if errors.Is(syncErr, cronjob.ErrNotFound) {
				syncErr = nil
			}
		}
		if errors.Is(syncErr, cronjob.ErrRejected) {
			// The scheduler refused the expression outright; replaying it
			// every pass would never succeed. Surface it and move on.
			report.Rejected++
			s.log.Warn("reconcile schedule rejected",
				zap.Error(syncErr),
				zap.Int64("project_id", int64(project.ID)),
				zap.String("cron", project.CronSchedule),
			)
			s.activity.Record(ctx, actdomain.Entry{
				ProjectID:   project.ID,
				UserID:      project.UserID,
				Type:        actdomain.TypeError,
				Title:       "Schedule rejected",
				Description: fmt.Sprintf("scheduler refused expression %q", project.CronSchedule),
				Status:      actdomain.StatusError,
			})
			continue
		}
		if syncErr != nil {
			report.Failed++
			s.log.Warn("reconcile schedule",
				zap.Error(syncErr),
				zap.Int64("project_id", int64(project.ID)),
			)
			continue
		}

		project.SchedulingError = false
		project.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateCAS(ctx, s.db, project); err != nil {
			report.Failed++
			s.log.Warn("clear scheduling flag", zap.Error(err))
			continue
		}
		report.Repaired++

		s.activity.Record(ctx, actdomain.Entry{
			ProjectID: project.ID,
			UserID:    project.UserID,
			Type:      actdomain.TypeSchedulingRepair,
			Title:     "Schedule reconciled",
			Status:    actdomain.StatusSuccess,
		})
	}
	return report, nil
}

func (s *service) findOwned(ctx context.Context, userID, id snowflake.ID) (*domain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return project, nil
}

func validAutomationType(t string) bool {
	switch t {
	case domain.AutomationCommitSummary, domain.AutomationWeeklyDigest, domain.AutomationReleaseNotes:
		return true
	}
	return false
}

func validateRecipients(recipients []string) ([]string, error) {
	if len(recipients) == 0 {
		return nil, &domain.RecipientsError{}
	}

	cleaned := make([]string, 0, len(recipients))
	var invalid []string
	for _, r := range recipients {
		addr := strings.TrimSpace(r)
		parsed, err := mail.ParseAddress(addr)
		if err != nil || addr == "" {
			invalid = append(invalid, r)
			continue
		}
		// Keep only the bare address; "Bob <bob@example.com>" parses but the
		// execution service expects plain addresses.
		cleaned = append(cleaned, parsed.Address)
	}
	if len(invalid) > 0 {
		return nil, &domain.RecipientsError{Invalid: invalid}
	}
	return cleaned, nil
}

func recipientCount(p *domain.Project) int {
	var recipients []string
	if err := json.Unmarshal(p.Recipients, &recipients); err != nil {
		return 0
	}
	return len(recipients)
}
