package risk

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

// RedisNotifier транслирует пометку актора во внешний мир:
// добавляет ID в множество помеченных и публикует сигнал "actorID:on".
type RedisNotifier struct {
	rdb    redis.Cmdable
	logger *zap.Logger
}

func NewRedisNotifier(rdb redis.Cmdable, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger.Named("monitor-signal")}
}

func (n *RedisNotifier) ActorMonitored(ctx context.Context, actor domain.Actor, count int64) error {
	id := strconv.FormatInt(actor.ID, 10)

	// 1. Состояние (для тех, кто поднимается позже и читает множество)
	// 2. Real-time сигнал подписчикам дашборда
	pipe := n.rdb.TxPipeline()
	pipe.SAdd(ctx, infra.RedisKeyMonitoredActors, id)
	pipe.Publish(ctx, infra.RedisChanMonitored, id+":on")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish monitored signal: %w", err)
	}

	n.logger.Info("monitored signal published",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("count", count),
		zap.String("channel", infra.RedisChanMonitored))
	return nil
}

// ActorCleared — обратный сигнал "actorID:off" после ручного снятия флага оператором.
func (n *RedisNotifier) ActorCleared(ctx context.Context, actorID int64) error {
	id := strconv.FormatInt(actorID, 10)
	pipe := n.rdb.TxPipeline()
	pipe.SRem(ctx, infra.RedisKeyMonitoredActors, id)
	pipe.Publish(ctx, infra.RedisChanMonitored, id+":off")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish cleared signal: %w", err)
	}
	return nil
}
