package trigger

import (
	"github.com/reposcribe/reposcribe/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("trigger.webhook",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (Invoker, error) {
		return New(cfg.Trigger, log)
	}),
)
