package ratelimit

import (
	"strings"

	"github.com/navlink/navlink/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewPayLocker),
)

// NewPayLocker returns a nil Locker when Redis is not configured; callers
// treat nil as "no fence" and rely on the row lock alone.
func NewPayLocker(cfg config.Config, log *zap.Logger) *Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("rate.limit").Info("redis not configured, pay lock disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return NewLocker(client)
}
