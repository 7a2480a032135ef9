package subscription

import (
	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/chain"
	"github.com/tollgate-io/tollgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("subscription",
	fx.Provide(func(resolver assetdomain.Resolver, chainClient chain.Client, cfg config.Config, log *zap.Logger) *Checker {
		return NewChecker(resolver, chainClient, cfg.DefaultMinCredits, log)
	}),
)
