package server

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	actdomain "github.com/reposcribe/reposcribe/internal/activity/domain"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/config"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
	projectdomain "github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/pkg/db/pagination"
)

type stubAuthService struct {
	session *authdomain.Session
	user    *authdomain.User
	token   string
	authErr error
}

func (s *stubAuthService) LoginWithGitHub(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	if s.user == nil {
		return nil, authdomain.ErrOAuthExchange
	}
	return &authdomain.LoginResult{User: *s.user, RawToken: "raw-session"}, nil
}

func (s *stubAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	if s.session == nil {
		return nil, authdomain.ErrInvalidSession
	}
	return s.session, nil
}

func (s *stubAuthService) Logout(ctx context.Context, rawToken string) error { return nil }

func (s *stubAuthService) CurrentUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	if s.user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubAuthService) TokenForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	if s.token == "" {
		return "", authdomain.ErrNoToken
	}
	return s.token, nil
}

type stubProjectService struct {
	project      *projectdomain.Project
	projects     []*projectdomain.Project
	lastRun      *time.Time
	report       *projectdomain.ReconcileReport
	createErr    error
	getErr       error
	updateErr    error
	deleteErr    error
	runErr       error
	recordErr    error
	reconcileErr error
}

func (s *stubProjectService) Create(ctx context.Context, userID snowflake.ID, req projectdomain.CreateRequest) (*projectdomain.Project, error) {
	if s.createErr != nil && !errors.Is(s.createErr, projectdomain.ErrSchedulingInconsistency) {
		return nil, s.createErr
	}
	return s.project, s.createErr
}

func (s *stubProjectService) Get(ctx context.Context, userID, id snowflake.ID) (*projectdomain.Project, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.project, nil
}

func (s *stubProjectService) List(ctx context.Context, userID snowflake.ID, p pagination.Pagination) ([]*projectdomain.Project, *pagination.PageInfo, error) {
	return s.projects, &pagination.PageInfo{}, nil
}

func (s *stubProjectService) UpdateStatus(ctx context.Context, userID, id snowflake.ID, status string) (*projectdomain.Project, error) {
	if s.updateErr != nil && !errors.Is(s.updateErr, projectdomain.ErrSchedulingInconsistency) {
		return nil, s.updateErr
	}
	return s.project, s.updateErr
}

func (s *stubProjectService) Delete(ctx context.Context, userID, id snowflake.ID) error {
	return s.deleteErr
}

func (s *stubProjectService) ManualRun(ctx context.Context, userID, id snowflake.ID) (*time.Time, error) {
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.lastRun, nil
}

func (s *stubProjectService) RecordEmailSent(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return s.project, nil
}

func (s *stubProjectService) Reconcile(ctx context.Context) (*projectdomain.ReconcileReport, error) {
	if s.reconcileErr != nil {
		return nil, s.reconcileErr
	}
	return s.report, nil
}

type stubActivityService struct {
	entries []actdomain.Activity
}

func (s *stubActivityService) Record(ctx context.Context, entry actdomain.Entry) {}

func (s *stubActivityService) ListByProject(ctx context.Context, projectID snowflake.ID, limit int) ([]actdomain.Activity, error) {
	return s.entries, nil
}

func (s *stubActivityService) ListByUser(ctx context.Context, userID snowflake.ID, limit int) ([]actdomain.Activity, error) {
	return s.entries, nil
}

type stubGitHubService struct {
	repos    []ghdomain.Repo
	commits  []ghdomain.Commit
	contents []ghdomain.Content
	err      error
}

func (s *stubGitHubService) ListRepos(ctx context.Context, token string, req ghdomain.ListReposRequest) ([]ghdomain.Repo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.repos, nil
}

func (s *stubGitHubService) GetRepoByID(ctx context.Context, token string, repoID int64) (*ghdomain.Repo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.repos) == 0 {
		return nil, ghdomain.ErrRepositoryNotFound
	}
	return &s.repos[0], nil
}

func (s *stubGitHubService) ListCommits(ctx context.Context, token, owner, repo string, perPage int) ([]ghdomain.Commit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.commits, nil
}

func (s *stubGitHubService) GetContents(ctx context.Context, token, owner, repo, path string) ([]ghdomain.Content, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.contents, nil
}

type testServer struct {
	server   *Server
	auth     *stubAuthService
	projects *stubProjectService
	activity *stubActivityService
	github   *stubGitHubService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	ts := &testServer{
		auth: &stubAuthService{
			session: &authdomain.Session{ID: 1, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)},
			user:    &authdomain.User{ID: 7, Username: "alice"},
			token:   "gh-token",
		},
		projects: &stubProjectService{},
		activity: &stubActivityService{},
		github:   &stubGitHubService{},
	}
	ts.server = &Server{
		engine: engine,
		cfg: config.Config{
			CronJob: config.CronJobConfig{APIKey: "hook-key"},
			GitHub:  config.GitHubConfig{ClientID: "cid", OAuthBaseURL: "https://github.com"},
		},
		authsvc:     ts.auth,
		projectSvc:  ts.projects,
		activitySvc: ts.activity,
		githubSvc:   ts.github,
	}
	ts.server.registerAuthRoutes()
	ts.server.registerAPIRoutes()
	ts.server.registerWebhookRoutes()
	return ts
}
