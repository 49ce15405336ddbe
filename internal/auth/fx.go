package auth

import (
	"github.com/reposcribe/reposcribe/internal/auth/oauth"
	"github.com/reposcribe/reposcribe/internal/auth/repository"
	"github.com/reposcribe/reposcribe/internal/auth/service"
	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("auth.service",
	fx.Provide(func(cfg config.Config, log *zap.Logger) oauth.Exchanger {
		return oauth.NewGitHub(cfg.GitHub, log)
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
