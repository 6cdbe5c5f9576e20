package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

// ReliabilityConfig — настройки предохранителя и повторов для журнала.
type ReliabilityConfig struct {
	CBMaxRequests uint32
	CBInterval    time.Duration
	CBTimeout     time.Duration
	// Порог подряд идущих отказов, после которого предохранитель размыкается
	CBFailures    uint32
	RetryAttempts uint
	RetryDelay    time.Duration
}

func DefaultReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		CBMaxRequests: 3,
		CBInterval:    5 * time.Second,
		CBTimeout:     30 * time.Second,
		CBFailures:    5,
		RetryAttempts: 3,
		RetryDelay:    50 * time.Millisecond,
	}
}

// BreakerObserver получает смены состояния предохранителя (метрики).
type BreakerObserver interface {
	SetBreakerState(name string, open bool)
}

// ReliableLog оборачивает журнал предохранителем (Circuit Breaker).
// Чтения (CountSince, Recent) повторяются с бэкоффом только при ErrStoreUnavailable.
// Append не повторяется: повтор мог бы задвоить запись.
type ReliableLog struct {
	next     Log
	cb       *gobreaker.CircuitBreaker
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

func NewReliableLog(next Log, cfg ReliabilityConfig, obs BreakerObserver, logger *zap.Logger) *ReliableLog {
	logger = logger.With(zap.String("mod", "action-log"))
	failures := cfg.CBFailures
	if failures == 0 {
		failures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "action-log",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Бизнес-ошибки (неизвестный актор, валидация) не должны размыкать предохранитель
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrStoreUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if obs != nil {
				obs.SetBreakerState(name, to == gobreaker.StateOpen)
			}
		},
	})

	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &ReliableLog{next: next, cb: cb, attempts: attempts, delay: cfg.RetryDelay, logger: logger}
}

func (l *ReliableLog) Append(ctx context.Context, rec domain.ActionRecord) (int64, error) {
	res, err := l.cb.Execute(func() (interface{}, error) {
		return l.next.Append(ctx, rec)
	})
	if err != nil {
		return 0, breakerErr(err)
	}
	return res.(int64), nil
}

func (l *ReliableLog) CountSince(ctx context.Context, actorID int64, since time.Time) (int64, error) {
	var count int64
	_, err := l.cb.Execute(func() (interface{}, error) {
		return nil, l.retry(ctx, func() error {
			var callErr error
			count, callErr = l.next.CountSince(ctx, actorID, since)
			return callErr
		})
	})
	if err != nil {
		return 0, breakerErr(err)
	}
	return count, nil
}

func (l *ReliableLog) RecentByTimestampDesc(ctx context.Context, limit int, f Filter) ([]domain.ActionRecord, error) {
	var records []domain.ActionRecord
	_, err := l.cb.Execute(func() (interface{}, error) {
		return nil, l.retry(ctx, func() error {
			var callErr error
			records, callErr = l.next.RecentByTimestampDesc(ctx, limit, f)
			return callErr
		})
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return records, nil
}

func (l *ReliableLog) retry(ctx context.Context, fn func() error) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrStoreUnavailable)
		}),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Debug("retrying action log read", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	return r.Do(fn)
}

// breakerErr переводит отказы предохранителя в таксономию домена
func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
