package lock

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/tollgate-io/tollgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the redis client and the locker. Both are nil when no redis
// address is configured; callers must tolerate a nil Locker.
var Module = fx.Module("lock",
	fx.Provide(
		func(cfg config.Config, log *zap.Logger) *redis.Client {
			if cfg.RedisAddr == "" {
				log.Debug("redis not configured, run lock disabled")
				return nil
			}
			return redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
		},
		NewLocker,
	),
)
