package lock

import (
	"github.com/reposcribe/reposcribe/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *redis.Client {
		if cfg.RedisAddr == "" {
			log.Warn("redis not configured, manual-run locking disabled")
			return nil
		}
		return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}),
	fx.Provide(NewLocker),
)
