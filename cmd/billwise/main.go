package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/billwise/billwise/internal/clock"
	"github.com/billwise/billwise/internal/config"
	"github.com/billwise/billwise/internal/migration"
	"github.com/billwise/billwise/internal/scheduler"
	"github.com/billwise/billwise/internal/server"
	"github.com/billwise/billwise/pkg/db"
	"github.com/billwise/billwise/pkg/log"
	"github.com/billwise/billwise/pkg/telemetry"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		telemetry.Module,

		migration.Module,
		server.Module,
		scheduler.Module,
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
