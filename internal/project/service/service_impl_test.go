package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	actdomain "github.com/reposcribe/reposcribe/internal/activity/domain"
	actrepository "github.com/reposcribe/reposcribe/internal/activity/repository"
	actservice "github.com/reposcribe/reposcribe/internal/activity/service"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/clock"
	"github.com/reposcribe/reposcribe/internal/cronjob"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
	"github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/internal/project/repository"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gatewayCall struct {
	op   string
	id   string
	cron string
}

type fakeGateway struct {
	calls         []gatewayCall
	registerErr   error
	unregisterErr error
}

func (g *fakeGateway) Register(ctx context.Context, id, cronExpr string) error {
	g.calls = append(g.calls, gatewayCall{op: "register", id: id, cron: cronExpr})
	return g.registerErr
}

func (g *fakeGateway) Unregister(ctx context.Context, id string) error {
	g.calls = append(g.calls, gatewayCall{op: "unregister", id: id})
	return g.unregisterErr
}

func (g *fakeGateway) registered() []gatewayCall {
	var out []gatewayCall
	for _, c := range g.calls {
		if c.op == "register" {
			out = append(out, c)
		}
	}
	return out
}

type fakeInvoker struct {
	ids []string
	err error
}

func (i *fakeInvoker) Trigger(ctx context.Context, projectID string) error {
	i.ids = append(i.ids, projectID)
	return i.err
}

type fakeAuth struct {
	token string
	err   error
}

func (a *fakeAuth) LoginWithGitHub(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	return nil, errors.New("not implemented")
}
func (a *fakeAuth) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	return nil, errors.New("not implemented")
}
func (a *fakeAuth) Logout(ctx context.Context, rawToken string) error { return nil }
func (a *fakeAuth) CurrentUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	return nil, errors.New("not implemented")
}
func (a *fakeAuth) TokenForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.token, nil
}

type fakeGitHub struct {
	repo *ghdomain.Repo
	err  error
}

func (g *fakeGitHub) ListRepos(ctx context.Context, token string, req ghdomain.ListReposRequest) ([]ghdomain.Repo, error) {
	return nil, errors.New("not implemented")
}
func (g *fakeGitHub) GetRepoByID(ctx context.Context, token string, repoID int64) (*ghdomain.Repo, error) {
	if g.err != nil {
		return nil, g.err
	}
	r := *g.repo
	return &r, nil
}
func (g *fakeGitHub) ListCommits(ctx context.Context, token, owner, repo string, perPage int) ([]ghdomain.Commit, error) {
	return nil, errors.New("not implemented")
}
func (g *fakeGitHub) GetContents(ctx context.Context, token, owner, repo, path string) ([]ghdomain.Content, error) {
	return nil, errors.New("not implemented")
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	fc       *clock.FakeClock
	gateway  *fakeGateway
	invoker  *fakeInvoker
	auth     *fakeAuth
	github   *fakeGitHub
	activity actdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}, &actdomain.Activity{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC))

	activitySvc := actservice.New(actservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  actrepository.Provide(),
	})

	f := &fixture{
		db:       db,
		fc:       fc,
		gateway:  &fakeGateway{},
		invoker:  &fakeInvoker{},
		auth:     &fakeAuth{token: "gh-token"},
		github:   &fakeGitHub{repo: &ghdomain.Repo{ID: 42, Name: "widget", Owner: "alice", HTMLURL: "https://github.com/alice/widget", Language: "Go", Private: true}},
		activity: activitySvc,
	}
	f.svc = New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Repo:     repository.Provide(),
		Gateway:  f.gateway,
		Invoker:  f.invoker,
		Auth:     f.auth,
		GitHub:   f.github,
		Activity: activitySvc,
		Locker:   nil,
		SchedCfg: nil,
	})
	return f
}

func (f *fixture) activities(t *testing.T, projectID snowflake.ID) []actdomain.Activity {
	t.Helper()
	entries, err := f.activity.ListByProject(context.Background(), projectID, 50)
	require.NoError(t, err)
	return entries
}

func validCreate() domain.CreateRequest {
	return domain.CreateRequest{
		RepoID:         42,
		AutomationType: domain.AutomationCommitSummary,
		Frequency:      "daily",
		Recipients:     []string{"alice@example.com", "bob@example.com"},
	}
}

func TestCreateActiveWithResolvedRepo(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, project.Status)
	assert.Equal(t, int64(0), project.EmailsSent)
	assert.Equal(t, "widget", project.RepoName)
	assert.Equal(t, "alice", project.RepoOwner)
	assert.True(t, project.RepoPrivate)
	assert.Equal(t, "0 9 * * *", project.CronSchedule)
	require.NotNil(t, project.NextRun)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), *project.NextRun)

	regs := f.gateway.registered()
	require.Len(t, regs, 1)
	assert.Equal(t, project.ID.String(), regs[0].id)
	assert.Equal(t, "0 9 * * *", regs[0].cron)
}

func TestCreateReportsAllInvalidRecipients(t *testing.T) {
	f := newFixture(t)

	req := validCreate()
	req.Recipients = []string{"alice@example.com", "not-an-email", "also bad"}
	_, err := f.svc.Create(context.Background(), 1, req)

	var recErr *domain.RecipientsError
	require.ErrorAs(t, err, &recErr)
	assert.ElementsMatch(t, []string{"not-an-email", "also bad"}, recErr.Invalid)

	var count int64
	require.NoError(t, f.db.Model(&domain.Project{}).Count(&count).Error)
	assert.Zero(t, count, "nothing should be persisted")
	assert.Empty(t, f.gateway.calls)
}

func TestCreateNormalizesDisplayNameRecipients(t *testing.T) {
	f := newFixture(t)

	req := validCreate()
	req.Recipients = []string{"Bob <bob@example.com>", " alice@example.com "}
	project, err := f.svc.Create(context.Background(), 1, req)
	require.NoError(t, err)

	var recipients []string
	require.NoError(t, json.Unmarshal(project.Recipients, &recipients))
	assert.Equal(t, []string{"bob@example.com", "alice@example.com"}, recipients)
}

func TestCreateOnEventSkipsGateway(t *testing.T) {
	f := newFixture(t)

	req := validCreate()
	req.Frequency = "on-event"
	project, err := f.svc.Create(context.Background(), 1, req)
	require.NoError(t, err)

	assert.Empty(t, project.CronSchedule)
	assert.Nil(t, project.NextRun)
	assert.Empty(t, f.gateway.calls)
}

func TestCreateUnknownFrequencyRejected(t *testing.T) {
	f := newFixture(t)

	req := validCreate()
	req.Frequency = "fortnightly"
	_, err := f.svc.Create(context.Background(), 1, req)
	require.Error(t, err)
	assert.Empty(t, f.gateway.calls)
}

func TestCreateRegisterFailureIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.gateway.registerErr = &cronjob.TransportError{Err: errors.New("connection refused")}

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.ErrorIs(t, err, domain.ErrSchedulingInconsistency)
	require.NotNil(t, project, "record must still be returned")

	stored, err := f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err)
	assert.True(t, stored.SchedulingError)
}

func TestCreateWithoutTokenFails(t *testing.T) {
	f := newFixture(t)
	f.auth.err = authdomain.ErrNoToken

	_, err := f.svc.Create(context.Background(), 1, validCreate())
	require.ErrorIs(t, err, authdomain.ErrNoToken)
}

func TestResumeReRegistersStoredSchedule(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), 1, project.ID, domain.StatusPaused)
	require.NoError(t, err)

	// Simulate a stored expression that drifted from what the translator
	// would produce today. Resume must replay it verbatim.
	err = f.db.Model(&domain.Project{}).Where("id = ?", project.ID).
		Update("cron_schedule", "30 7 * * *").Error
	require.NoError(t, err)

	f.gateway.calls = nil
	_, err = f.svc.UpdateStatus(context.Background(), 1, project.ID, domain.StatusActive)
	require.NoError(t, err)

	regs := f.gateway.registered()
	require.Len(t, regs, 1)
	assert.Equal(t, "30 7 * * *", regs[0].cron, "resume must register the stored expression")
}

func TestPauseUnregisters(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.gateway.calls = nil
	updated, err := f.svc.UpdateStatus(context.Background(), 1, project.ID, domain.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, updated.Status)
	assert.Nil(t, updated.NextRun)
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "unregister", f.gateway.calls[0].op)
}

func TestPauseGatewayFailureFlagsRecord(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.gateway.unregisterErr = &cronjob.TransportError{Err: errors.New("gateway down")}
	updated, err := f.svc.UpdateStatus(context.Background(), 1, project.ID, domain.StatusPaused)
	require.ErrorIs(t, err, domain.ErrSchedulingInconsistency)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusPaused, updated.Status, "local status must still be persisted")
	assert.True(t, updated.SchedulingError)
}

func TestDeleteIdempotent(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.gateway.calls = nil
	require.NoError(t, f.svc.Delete(context.Background(), 1, project.ID))
	require.Len(t, f.gateway.calls, 1)
	assert.Equal(t, "unregister", f.gateway.calls[0].op, "unregister must precede the delete")

	err = f.svc.Delete(context.Background(), 1, project.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTreatsGatewayNotFoundAsSuccess(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.gateway.unregisterErr = cronjob.ErrNotFound
	require.NoError(t, f.svc.Delete(context.Background(), 1, project.ID))

	_, err = f.svc.Get(context.Background(), 1, project.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAbortsWhenGatewayDown(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.gateway.unregisterErr = &cronjob.TransportError{Err: errors.New("gateway down")}
	var transportErr *cronjob.TransportError
	err = f.svc.Delete(context.Background(), 1, project.ID)
	require.ErrorAs(t, err, &transportErr)

	_, err = f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err, "record must survive a failed unregister")
}

func TestManualRunBumpsLastRunAndTriggers(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.fc.Set(time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC))
	lastRun, err := f.svc.ManualRun(context.Background(), 1, project.ID)
	require.NoError(t, err)
	require.NotNil(t, lastRun)
	assert.True(t, lastRun.Equal(f.fc.Now()))
	require.Len(t, f.invoker.ids, 1)
	assert.Equal(t, project.ID.String(), f.invoker.ids[0])

	stored, err := f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastRun)
	assert.True(t, stored.LastRun.Equal(*lastRun))
}

func TestManualRunForbiddenForOtherUser(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	before := f.activities(t, project.ID)

	_, err = f.svc.ManualRun(context.Background(), 2, project.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.invoker.ids)

	stored, err := f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastRun, "last run must be unchanged")
	assert.Len(t, f.activities(t, project.ID), len(before), "no activity row may be appended")
}

func TestManualRunTriggerFailureIsLoud(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	f.invoker.err = errors.New("execution_trigger_failed")
	_, err = f.svc.ManualRun(context.Background(), 1, project.ID)
	require.Error(t, err, "trigger failure must surface")

	var hasError bool
	for _, a := range f.activities(t, project.ID) {
		if a.Type == actdomain.TypeError {
			hasError = true
		}
	}
	assert.True(t, hasError, "expected an error activity entry")
}

func TestRecordEmailSentIncrements(t *testing.T) {
	f := newFixture(t)

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)

	updated, err := f.svc.RecordEmailSent(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.EmailsSent)

	updated, err = f.svc.RecordEmailSent(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.EmailsSent)
}

func TestReconcileRepairsFlaggedRecords(t *testing.T) {
	f := newFixture(t)
	f.gateway.registerErr = &cronjob.TransportError{Err: errors.New("down")}

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.ErrorIs(t, err, domain.ErrSchedulingInconsistency)

	f.gateway.registerErr = nil
	f.gateway.calls = nil
	report, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Repaired)
	assert.Zero(t, report.Failed)

	regs := f.gateway.registered()
	require.Len(t, regs, 1)
	assert.Equal(t, "0 9 * * *", regs[0].cron)

	stored, err := f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err)
	assert.False(t, stored.SchedulingError, "flag must be cleared after repair")
}

func TestReconcileSurfacesRejectedSchedules(t *testing.T) {
	f := newFixture(t)
	f.gateway.registerErr = &cronjob.TransportError{Err: errors.New("down")}

	project, err := f.svc.Create(context.Background(), 1, validCreate())
	require.ErrorIs(t, err, domain.ErrSchedulingInconsistency)

	// The scheduler now refuses the expression outright. That is not a
	// transient failure and must not be counted as one.
	f.gateway.registerErr = cronjob.ErrRejected
	f.gateway.calls = nil
	report, err := f.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Repaired)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1, report.Rejected)

	stored, err := f.svc.Get(context.Background(), 1, project.ID)
	require.NoError(t, err)
	assert.True(t, stored.SchedulingError, "flag must stay set for rejected schedules")

	var hasRejectionEntry bool
	for _, a := range f.activities(t, project.ID) {
		if a.Type == actdomain.TypeError && a.Status == actdomain.StatusError {
			hasRejectionEntry = true
		}
	}
	assert.True(t, hasRejectionEntry, "rejection must be surfaced in the activity log")
}

func TestListReturnsOwnProjectsNewestFirst(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	f.fc.Advance(time.Minute)
	second, err := f.svc.Create(context.Background(), 1, validCreate())
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), 2, validCreate())
	require.NoError(t, err)

	projects, _, err := f.svc.List(context.Background(), 1, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, first.ID, projects[1].ID)

	var recipients []string
	require.NoError(t, json.Unmarshal(projects[0].Recipients, &recipients))
	assert.Len(t, recipients, 2)
}
