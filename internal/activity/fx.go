package activity

import (
	"github.com/reposcribe/reposcribe/internal/activity/repository"
	"github.com/reposcribe/reposcribe/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
