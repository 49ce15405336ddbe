package github

import (
	"github.com/reposcribe/reposcribe/internal/config"
	"github.com/reposcribe/reposcribe/internal/github/domain"
	"github.com/reposcribe/reposcribe/internal/github/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("github.service",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Service {
		return service.New(cfg.GitHub, log)
	}),
)
