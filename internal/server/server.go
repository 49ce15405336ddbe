package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reposcribe/reposcribe/internal/activity"
	actdomain "github.com/reposcribe/reposcribe/internal/activity/domain"
	"github.com/reposcribe/reposcribe/internal/auth"
	authdomain "github.com/reposcribe/reposcribe/internal/auth/domain"
	"github.com/reposcribe/reposcribe/internal/config"
	"github.com/reposcribe/reposcribe/internal/cronjob"
	"github.com/reposcribe/reposcribe/internal/github"
	ghdomain "github.com/reposcribe/reposcribe/internal/github/domain"
	"github.com/reposcribe/reposcribe/internal/lock"
	"github.com/reposcribe/reposcribe/internal/observability"
	obsmiddleware "github.com/reposcribe/reposcribe/internal/observability/logger"
	obsmetrics "github.com/reposcribe/reposcribe/internal/observability/metrics"
	obstracing "github.com/reposcribe/reposcribe/internal/observability/tracing"
	"github.com/reposcribe/reposcribe/internal/project"
	projectdomain "github.com/reposcribe/reposcribe/internal/project/domain"
	"github.com/reposcribe/reposcribe/internal/trigger"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	auth.Module,
	activity.Module,
	cronjob.Module,
	trigger.Module,
	github.Module,
	lock.Module,
	project.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	genID       *snowflake.Node
	authsvc     authdomain.Service
	projectSvc  projectdomain.Service
	activitySvc actdomain.Service
	githubSvc   ghdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	GenID       *snowflake.Node
	Authsvc     authdomain.Service
	ProjectSvc  projectdomain.Service
	ActivitySvc actdomain.Service
	GithubSvc   ghdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		genID:       p.GenID,
		authsvc:     p.Authsvc,
		projectSvc:  p.ProjectSvc,
		activitySvc: p.ActivitySvc,
		githubSvc:   p.GithubSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.GET("/github/login", s.GitHubLogin)
	auth.GET("/github/callback", s.GitHubCallback)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	projects := api.Group("/projects")
	{
		projects.GET("", s.ListProjects)
		projects.POST("", s.CreateProject)
		projects.GET("/:id", s.GetProject)
		projects.PATCH("/:id", s.UpdateProjectStatus)
		projects.DELETE("/:id", s.DeleteProject)
		projects.POST("/:id/run", s.RunProject)
		projects.GET("/:id/commits", s.ListProjectCommits)
		projects.GET("/:id/activity", s.ListProjectActivity)
	}

	gh := api.Group("/github")
	{
		gh.GET("/repos", s.ListRepos)
		gh.POST("/repos/contents", s.GetRepoContents)
	}

	api.GET("/activity", s.ListActivity)

	admin := api.Group("/admin")
	{
		admin.POST("/reconcile", s.Reconcile)
	}
}

func (s *Server) registerWebhookRoutes() {
	hooks := s.engine.Group("/webhooks", s.WebhookKeyRequired())

	hooks.POST("/reports/:id/delivered", s.ReportDelivered)
}
