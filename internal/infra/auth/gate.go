package auth

/*
Файл gate.go — шлюз доступа (Access Gate) для защищенного периметра API.

Две композиционные проверки:
- Identify: bearer-токен -> ID актора -> актор из реестра. Любой сбой — ErrUnauthenticated,
  аудит в этом случае не пишется (личность не установлена).
- Require(roles): роль актора должна входить в набор, иначе ErrForbidden.

Побочный эффект Identify: запись READ/"Request" с деталями "{method} {path}" на каждый
опознанный запрос, включая те, что затем получат 403. Именно эти записи питают монитор.
Аудит best-effort: сбой вставки логируется, но не ломает сам запрос.

Если подключен список наблюдения, запросы помеченных акторов проходят как обычно,
но получают поле monitored в логах шлюза и отдельный счетчик.
*/

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

// TokenVerifier — verify(token) -> ActorID
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

type ActorResolver interface {
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
}

// Watched — локальный список помеченных акторов (risk.Watchlist).
type Watched interface {
	Contains(actorID int64) bool
}

type Gate struct {
	tokens  TokenVerifier
	actors  ActorResolver
	log     audit.Log
	watched Watched
	metrics *infra.Metrics
	logger  *zap.Logger
}

func NewGate(tokens TokenVerifier, actors ActorResolver, log audit.Log, metrics *infra.Metrics, logger *zap.Logger) *Gate {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Gate{
		tokens:  tokens,
		actors:  actors,
		log:     log,
		metrics: metrics,
		logger:  logger.Named("gate"),
	}
}

// WithWatchlist подключает список наблюдения. nil — без пометок.
func (g *Gate) WithWatchlist(w Watched) *Gate {
	g.watched = w
	return g
}

func (g *Gate) isWatched(actor *domain.Actor) bool {
	return actor != nil && g.watched != nil && g.watched.Contains(actor.ID)
}

// Identify выполняет проверку личности и пишет аудит-запись запроса.
func (g *Gate) Identify(ctx context.Context, token, method, path string) (*domain.Actor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}
	actorID, err := g.tokens.Verify(token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			err = fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
		}
		return nil, err
	}

	actor, err := g.actors.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: actor %d no longer exists", domain.ErrUnauthenticated, actorID)
		}
		return nil, err
	}

	g.recordRequest(ctx, actor, method, path)
	return actor, nil
}

// Authorize — проверка роли против набора endpoint'а.
func Authorize(actor *domain.Actor, roles domain.RoleSet) error {
	if actor == nil {
		return fmt.Errorf("%w: no actor in request", domain.ErrUnauthenticated)
	}
	if !roles.Contains(actor.Role) {
		return fmt.Errorf("%w: role %s, required %s", domain.ErrForbidden, actor.Role, roles)
	}
	return nil
}

func (g *Gate) recordRequest(ctx context.Context, actor *domain.Actor, method, path string) {
	if _, err := g.log.Append(ctx, domain.RequestRecord(actor.ID, method, path)); err != nil {
		g.metrics.AuditAppendFailures.Inc()
		g.logger.Error("audit append failed",
			zap.Int64("actor_id", actor.ID),
			zap.String("trace_id", infra.TraceID(ctx)),
			zap.Error(err))
	}
}

// Middleware — проверка личности для всей группы роутов.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := g.Identify(r.Context(), bearerToken(r), r.Method, r.URL.Path)
		if err != nil {
			g.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Require — проверка роли; ставится после Middleware.
func (g *Gate) Require(roles domain.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			if err := Authorize(actor, roles); err != nil {
				g.deny(w, r, err)
				return
			}
			g.metrics.GateDecisions.WithLabelValues("allowed").Inc()
			if g.isWatched(actor) {
				g.metrics.WatchedRequests.WithLabelValues("allowed").Inc()
				g.logger.Info("monitored actor passed gate",
					zap.Int64("actor_id", actor.ID),
					zap.String("trace_id", infra.TraceID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Bool("monitored", true))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("trace_id", infra.TraceID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		g.metrics.GateDecisions.WithLabelValues("unauthenticated").Inc()
		g.logger.Warn("auth failure", fields...)
		w.Header().Set("WWW-Authenticate", `Bearer realm="hotel-guard"`)
		infra.WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		g.metrics.GateDecisions.WithLabelValues("forbidden").Inc()
		if actor, ok := ActorFromContext(r.Context()); ok {
			watched := g.isWatched(actor)
			if watched {
				g.metrics.WatchedRequests.WithLabelValues("forbidden").Inc()
			}
			fields = append(fields, zap.Int64("actor_id", actor.ID), zap.Bool("monitored", watched))
		}
		g.logger.Warn("capability check failed", fields...)
		infra.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient role")
	default:
		g.metrics.GateDecisions.WithLabelValues("error").Inc()
		g.logger.Error("identity resolution failed", fields...)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			infra.WriteError(w, http.StatusServiceUnavailable, "unavailable", "Error checking access")
			return
		}
		infra.WriteError(w, http.StatusInternalServerError, "internal", "Error checking access")
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
