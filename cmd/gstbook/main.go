package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/internal/idempotency"
	"github.com/smallbiznis/gstbook/internal/invoice"
	"github.com/smallbiznis/gstbook/internal/metricspush"
	"github.com/smallbiznis/gstbook/internal/migration"
	"github.com/smallbiznis/gstbook/internal/observability"
	"github.com/smallbiznis/gstbook/internal/server"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		idempotency.Module,

		// Functional Domains
		invoice.Module,
		server.Module,
		metricspush.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
