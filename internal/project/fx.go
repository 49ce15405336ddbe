package project

import (
	"github.com/reposcribe/reposcribe/internal/project/repository"
	"github.com/reposcribe/reposcribe/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
