package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/reposcribe/reposcribe/internal/clock"
	"github.com/reposcribe/reposcribe/internal/migration"
	"github.com/reposcribe/reposcribe/internal/observability"
	"github.com/reposcribe/reposcribe/internal/server"
	"github.com/reposcribe/reposcribe/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
