package cache

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
)

// Module provides the Cache, preferring Redis when REDIS_URL is set.
var Module = fx.Provide(newCache)

type cacheParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

var newRedisClient = NewRedisClient

func newCache(p cacheParams) (Cache, error) {
	if p.Config.RedisURL == "" {
		p.Logger.Info("using in-process cache")
		return NewMemory(), nil
	}

	cli, err := newRedisClient(context.Background(), p.Config.RedisURL, p.Config.RedisPassword, p.Config.RedisDB)
	if err != nil {
		return nil, err
	}
	c := NewRedis(cli)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	p.Logger.Info("using redis cache")
	return c, nil
}
