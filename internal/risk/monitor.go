package risk

/*
Файл monitor.go реализует пороговый монитор активности (Threshold Monitor).

Раз в PollInterval монитор перебирает всех акторов, считает их действия в скользящем
окне Window и переводит в состояние monitored тех, у кого счетчик >= Threshold.
Каждая пометка сопровождается записью CREATE/"Actor" в журнал от имени самого актора.

- State Machine: Stopped <-> Running. Start идемпотентен, Stop безопасен в любой момент
  (в том числе до Start) и дожидается выхода цикла: текущий скан доигрывается,
  следующий уже не начнется.
- Изоляция отказов: ошибка по одному актору логируется и не прерывает цикл.
  Неудачная запись флага не повторяется в этом цикле: monitored остается false,
  и актор будет переоценен на следующем.
- Счет и запись флага не транзакционны относительно параллельных вставок:
  счетчик может устареть к моменту записи, настойчивую активность поймает следующий цикл.
- Перебор всех акторов — O(actors) на цикл. Это осознанный потолок масштабирования.
*/

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

// ActorRegistry — то, что монитору нужно от реестра акторов.
type ActorRegistry interface {
	FindAll(ctx context.Context) ([]domain.Actor, error)
	MarkMonitored(ctx context.Context, id int64) (bool, error)
}

// Notifier получает события о новых пометках (Redis, вебхуки).
type Notifier interface {
	ActorMonitored(ctx context.Context, actor domain.Actor, count int64) error
}

type Config struct {
	Window       time.Duration
	Threshold    int64
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Window:       5 * time.Minute,
		Threshold:    50,
		PollInterval: 60 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be >= 1", domain.ErrInvalidInput)
	}
	if c.Window <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("%w: window and poll interval must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// ScanResult — итог одного цикла.
type ScanResult struct {
	Scanned int     `json:"scanned"`
	Flagged []int64 `json:"flagged"`
	Errors  int     `json:"errors"`
}

type Option func(*Monitor)

func WithNotifier(n Notifier) Option { return func(m *Monitor) { m.notifier = n } }

func WithMetrics(metrics *infra.Metrics) Option { return func(m *Monitor) { m.metrics = metrics } }

func WithLogger(l *zap.Logger) Option { return func(m *Monitor) { m.logger = l } }

// WithClock подменяет часы: окно считается от now().
func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

// WithStateHook вызывается при каждой смене Stopped/Running (gRPC health).
func WithStateHook(fn func(running bool)) Option { return func(m *Monitor) { m.onState = fn } }

// Monitor — долгоживущий сервис, создается один раз при старте процесса
// и передается по ссылке всем, кто управляет его жизненным циклом.
type Monitor struct {
	cfg      Config
	actors   ActorRegistry
	log      audit.Log
	notifier Notifier
	metrics  *infra.Metrics
	logger   *zap.Logger
	now      func() time.Time
	onState  func(running bool)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	// Ручной скан из админки и плановый не должны идти параллельно
	scanMu    sync.Mutex
	cycleErrs int // ошибки текущего цикла, только под scanMu

	scans       atomic.Int64
	lastFlagged atomic.Int64
	lastScanAt  atomic.Pointer[time.Time]
}

func NewMonitor(cfg Config, actors ActorRegistry, log audit.Log, opts ...Option) (*Monitor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		cfg:    cfg,
		actors: actors,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.metrics == nil {
		m.metrics = infra.NewMetrics(nil)
	}
	m.logger = m.logger.Named("monitor")
	return m, nil
}

// Start переводит Stopped→Running. Повторный вызов — no-op (вернет false).
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(m.stop, m.done)

	m.metrics.MonitorRunning.Set(1)
	if m.onState != nil {
		m.onState(true)
	}
	m.logger.Info("threshold monitor started",
		zap.Duration("window", m.cfg.Window),
		zap.Int64("threshold", m.cfg.Threshold),
		zap.Duration("poll_interval", m.cfg.PollInterval))
	return true
}

// Stop переводит Running→Stopped и ждет, пока цикл выйдет.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.metrics.MonitorRunning.Set(0)
	if m.onState != nil {
		m.onState(false)
	}
	m.mu.Unlock()

	<-done
	m.logger.Info("threshold monitor stopped")
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	// Первый скан сразу после старта, дальше — по таймеру.
	// Stop, пришедший до первого скана, его отменяет.
	select {
	case <-stop:
		return
	default:
	}
	m.scheduledScan()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Stop мог прийти одновременно с тиком: он приоритетнее
			select {
			case <-stop:
				return
			default:
			}
			m.scheduledScan()
		}
	}
}

func (m *Monitor) scheduledScan() {
	if _, err := m.ScanOnce(context.Background()); err != nil {
		m.logger.Error("scan cycle failed", zap.Error(err))
	}
}

// ScanOnce выполняет один цикл анализа журнала.
// Ошибка возвращается только если не удалось получить список акторов.
func (m *Monitor) ScanOnce(ctx context.Context) (ScanResult, error) {
	m.scanMu.Lock()
	defer m.scanMu.Unlock()

	started := time.Now()
	now := m.now()
	since := now.Add(-m.cfg.Window)

	actors, err := m.actors.FindAll(ctx)
	if err != nil {
		m.metrics.ScanErrors.WithLabelValues("enumerate").Inc()
		return ScanResult{}, fmt.Errorf("monitor: enumerate actors: %w", err)
	}

	res := ScanResult{Scanned: len(actors), Flagged: make([]int64, 0)}
	for _, actor := range actors {
		if m.evaluate(ctx, actor, since) {
			res.Flagged = append(res.Flagged, actor.ID)
		}
	}
	res.Errors = m.drainErrors()

	m.scans.Add(1)
	m.lastFlagged.Store(int64(len(res.Flagged)))
	m.lastScanAt.Store(&now)
	m.metrics.ScansTotal.Inc()
	m.metrics.ScanDuration.Observe(time.Since(started).Seconds())

	m.logger.Debug("scan cycle finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("flagged", len(res.Flagged)),
		zap.Int("errors", res.Errors))
	return res, nil
}

// evaluate проверяет одного актора. true — актор переведен в monitored в этом цикле.
func (m *Monitor) evaluate(ctx context.Context, actor domain.Actor, since time.Time) bool {
	count, err := m.log.CountSince(ctx, actor.ID, since)
	if err != nil {
		m.scanError("count", actor.ID, err)
		return false
	}
	if count < m.cfg.Threshold || actor.Monitored {
		return false
	}

	flipped, err := m.actors.MarkMonitored(ctx, actor.ID)
	if err != nil {
		m.scanError("flag", actor.ID, err)
		return false
	}
	if !flipped {
		// Флаг уже стоит (поставлен между чтением списка и записью)
		return false
	}

	m.metrics.FlaggedTotal.Inc()
	m.logger.Warn("suspicious activity detected",
		zap.Int64("actor_id", actor.ID),
		zap.String("email", actor.Email),
		zap.Int64("count", count),
		zap.Duration("window", m.cfg.Window))

	rec := domain.ActionRecord{
		ActorID:    actor.ID,
		Kind:       domain.ActionCreate,
		TargetType: domain.TargetActor,
		TargetID:   actor.ID,
		Detail:     fmt.Sprintf("Actor marked as monitored due to %d actions in %s", count, m.cfg.Window),
	}
	if _, err := m.log.Append(ctx, rec); err != nil {
		m.scanError("audit", actor.ID, err)
	}

	if m.notifier != nil {
		actor.Monitored = true
		if err := m.notifier.ActorMonitored(ctx, actor, count); err != nil {
			m.logger.Warn("monitored signal delivery failed", zap.Int64("actor_id", actor.ID), zap.Error(err))
		}
	}
	return true
}

func (m *Monitor) scanError(stage string, actorID int64, err error) {
	m.cycleErrs++
	m.metrics.ScanErrors.WithLabelValues(stage).Inc()
	m.logger.Error("actor scan failed",
		zap.String("stage", stage),
		zap.Int64("actor_id", actorID),
		zap.Error(err))
}

func (m *Monitor) drainErrors() int {
	n := m.cycleErrs
	m.cycleErrs = 0
	return n
}

// Status — снимок состояния для админки.
func (m *Monitor) Status() domain.MonitorStatus {
	st := domain.MonitorStatus{
		Running:      m.Running(),
		Window:       m.cfg.Window.String(),
		Threshold:    m.cfg.Threshold,
		PollInterval: m.cfg.PollInterval.String(),
		Scans:        m.scans.Load(),
		LastFlagged:  int(m.lastFlagged.Load()),
	}
	if t := m.lastScanAt.Load(); t != nil {
		ts := *t
		st.LastScanAt = &ts
	}
	return st
}

// Config возвращает параметры окна (нужны живому отчету о подозрительной активности).
func (m *Monitor) Config() Config {
	return m.cfg
}

func (m *Monitor) Window() time.Duration { return m.cfg.Window }

func (m *Monitor) Threshold() int64 { return m.cfg.Threshold }
