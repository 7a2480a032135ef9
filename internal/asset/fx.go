package asset

import (
	"github.com/tollgate-io/tollgate/internal/asset/cache"
	"github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/asset/registry"
	"github.com/tollgate-io/tollgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("asset",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Resolver {
		return cache.NewCachingResolver(registry.NewClient(cfg.RegistryURL, log))
	}),
)
