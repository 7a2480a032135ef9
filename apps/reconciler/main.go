package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tollgate-io/tollgate/internal/asset"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/config"
	"github.com/tollgate-io/tollgate/internal/lock"
	"github.com/tollgate-io/tollgate/internal/migration"
	"github.com/tollgate-io/tollgate/internal/observability"
	"github.com/tollgate-io/tollgate/internal/settlement"
	"github.com/tollgate-io/tollgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Settlement dependencies
		asset.Module,
		chain.Module,
		lock.Module,

		settlement.Module,
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
