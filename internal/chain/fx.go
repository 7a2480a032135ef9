package chain

import (
	"github.com/tollgate-io/tollgate/internal/chain/node"
	"github.com/tollgate-io/tollgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("chain",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Client {
		return node.NewClient(cfg.ChainNodeURL, cfg.ChainAccount, log)
	}),
)
