// Command tollgate runs the gateway and the reconciler in one process, the
// default for single-host deployments.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tollgate-io/tollgate/internal/asset"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/config"
	"github.com/tollgate-io/tollgate/internal/introspect"
	"github.com/tollgate-io/tollgate/internal/lock"
	"github.com/tollgate-io/tollgate/internal/migration"
	"github.com/tollgate-io/tollgate/internal/observability"
	"github.com/tollgate-io/tollgate/internal/server"
	"github.com/tollgate-io/tollgate/internal/settlement"
	"github.com/tollgate-io/tollgate/internal/subscription"
	"github.com/tollgate-io/tollgate/internal/token"
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

		token.Module,
		asset.Module,
		chain.Module,
		subscription.Module,
		introspect.Module,
		server.Module,

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
