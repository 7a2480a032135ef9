package introspect

import (
	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/config"
	"github.com/tollgate-io/tollgate/internal/observability/metrics"
	"github.com/tollgate-io/tollgate/internal/subscription"
	"github.com/tollgate-io/tollgate/internal/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("introspect",
	fx.Provide(
		func(
			codec *token.Codec,
			resolver assetdomain.Resolver,
			checker *subscription.Checker,
			m *metrics.Metrics,
			clk clock.Clock,
			cfg config.Config,
			log *zap.Logger,
		) *Engine {
			return NewEngine(codec, resolver, checker, m, clk, cfg.DecisionTimeout, log)
		},
		NewHandler,
	),
)
