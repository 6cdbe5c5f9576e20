package risk

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

// Watchlist — локальный потокобезопасный кэш помеченных акторов.
// Источник правды — реестр; кэш прогревается из него при старте
// и дальше живет на сигналах "id:on" / "id:off" от любых инстансов.
type Watchlist struct {
	mu      sync.RWMutex
	actors  map[int64]struct{}
	rdb     *redis.Client
	metrics *infra.Metrics
	logger  *zap.Logger
}

func NewWatchlist(rdb *redis.Client, metrics *infra.Metrics, logger *zap.Logger) *Watchlist {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Watchlist{
		actors:  make(map[int64]struct{}),
		rdb:     rdb,
		metrics: metrics,
		logger:  logger.Named("watchlist"),
	}
}

// MonitoredSource — реестр акторов как источник правды для прогрева.
type MonitoredSource interface {
	FindMonitored(ctx context.Context) ([]domain.Actor, error)
}

const warmupLockKey = infra.RedisNamespace + ":actors:monitored_warmup_lock"

// Warmup прогревает L1 (RAM) из реестра и L2 (Redis set), если тот пуст.
func (w *Watchlist) Warmup(ctx context.Context, src MonitoredSource) error {
	actors, err := src.FindMonitored(ctx)
	if err != nil {
		return err
	}

	// 1. Локальный кэш
	ids := make([]any, 0, len(actors))
	w.mu.Lock()
	for _, a := range actors {
		w.actors[a.ID] = struct{}{}
		ids = append(ids, strconv.FormatInt(a.ID, 10))
	}
	n := len(w.actors)
	w.mu.Unlock()
	w.metrics.WatchlistSize.Set(float64(n))

	if len(ids) == 0 {
		return nil
	}

	// 2. Распределенная блокировка (SetNX), чтобы только один инстанс обновлял Redis
	ok, err := w.rdb.SetNX(ctx, warmupLockKey, "processing", 30*time.Second).Result()
	if err != nil || !ok {
		return nil // Либо ошибка сети, либо другой уже греет кэш
	}

	// 3. Если Redis пуст, а данные в БД есть — заливаем
	count, err := w.rdb.SCard(ctx, infra.RedisKeyMonitoredActors).Result()
	if err != nil {
		w.logger.Warn("could not check Redis set size, proceeding with warm-up", zap.Error(err))
		count = 0
	}
	if count == 0 {
		w.logger.Info("monitored set is empty, performing warm-up from registry", zap.Int("count", len(ids)))
		return w.rdb.SAdd(ctx, infra.RedisKeyMonitoredActors, ids...).Err()
	}
	return nil
}

// Listen подписывается на Redis и обновляет состояние до отмены ctx
func (w *Watchlist) Listen(ctx context.Context) {
	pubsub := w.rdb.Subscribe(ctx, infra.RedisChanMonitored)
	defer pubsub.Close()

	ch := pubsub.Channel()
	w.logger.Info("monitored signal listener started", zap.String("channel", infra.RedisChanMonitored))

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				w.logger.Warn("monitored signal channel closed")
				return
			}
			if !w.Apply(msg.Payload) {
				w.logger.Warn("malformed monitored signal", zap.String("payload", msg.Payload))
			}
		case <-ctx.Done():
			w.logger.Info("monitored signal listener stopping")
			return
		}
	}
}

// Apply разбирает сигнал "id:on" / "id:off". false — сигнал не распознан.
func (w *Watchlist) Apply(payload string) bool {
	rawID, state, ok := strings.Cut(payload, ":")
	if !ok {
		return false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return false
	}

	w.mu.Lock()
	switch state {
	case "on":
		w.actors[id] = struct{}{}
	case "off":
		delete(w.actors, id)
	default:
		w.mu.Unlock()
		return false
	}
	n := len(w.actors)
	w.mu.Unlock()

	w.metrics.WatchlistSize.Set(float64(n))
	w.logger.Info("monitored signal received", zap.Int64("actor_id", id), zap.String("state", state))
	return true
}

func (w *Watchlist) Contains(actorID int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.actors[actorID]
	return ok
}

func (w *Watchlist) size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actors)
}
