package settlement

import (
	"context"

	"github.com/bwmarrin/snowflake"
	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
	"github.com/tollgate-io/tollgate/internal/chain"
	clockpkg "github.com/tollgate-io/tollgate/internal/clock"
	"github.com/tollgate-io/tollgate/internal/config"
	"github.com/tollgate-io/tollgate/internal/lock"
	"github.com/tollgate-io/tollgate/internal/observability/metrics"
	"github.com/tollgate-io/tollgate/internal/settlement/repository"
	"github.com/tollgate-io/tollgate/internal/settlement/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("settlement",
	fx.Provide(
		func(db *gorm.DB, clk clockpkg.Clock, log *zap.Logger) *repository.Repository {
			return repository.New(db, clk, log)
		},
		func(resolver assetdomain.Resolver, m *metrics.Metrics, log *zap.Logger) *service.Processor {
			return service.NewProcessor(resolver, m, log)
		},
		func(
			cfg config.Config,
			repo *repository.Repository,
			processor *service.Processor,
			chainClient chain.Client,
			locker *lock.Locker,
			genID *snowflake.Node,
			log *zap.Logger,
		) *Loop {
			loopCfg := Config{
				PollInterval: cfg.PollInterval,
				RetryCeiling: cfg.RetryCeiling,
			}
			if !cfg.ReconcilerLock {
				locker = nil
			}
			return NewLoop(loopCfg, repo, processor, chainClient, locker, genID, log)
		},
	),
	fx.Invoke(Run),
)

// Run supervises the loop under the fx lifecycle. A store failure shuts the
// application down so the orchestrator restarts it with a fresh connection.
func Run(lc fx.Lifecycle, shutdowner fx.Shutdowner, loop *Loop, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := loop.RunForever(ctx); err != nil {
					log.Error("reconciler stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
