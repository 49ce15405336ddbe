package cronjob

import (
	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cronjob.gateway",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (Gateway, error) {
		return New(cfg.CronJob, log)
	}),
)
