package main

import (
	"github.com/tollgate-io/tollgate/internal/asset"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/config"
	"github.com/tollgate-io/tollgate/internal/introspect"
	"github.com/tollgate-io/tollgate/internal/observability"
	"github.com/tollgate-io/tollgate/internal/server"
	"github.com/tollgate-io/tollgate/internal/subscription"
	"github.com/tollgate-io/tollgate/internal/token"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,

		// Introspection dependencies
		token.Module,
		asset.Module,
		chain.Module,
		subscription.Module,
		introspect.Module,

		server.Module,
	)
	app.Run()
}
