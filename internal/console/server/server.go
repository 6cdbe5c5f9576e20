package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/console/handler"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/infra/auth"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Шлюз доступа: личность (RS256) + роль, аудит каждого опознанного запроса
	gate *auth.Gate

	authHandler  *handler.AuthHandler  // /auth/*
	adminHandler *handler.AdminHandler // /api/admin/*
}

// NewConsoleServer инициализирует API со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	gate *auth.Gate,
	authH *handler.AuthHandler,
	adminH *handler.AdminHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:       chi.NewRouter(),
		logger:       logger.Named("console-api"),
		gate:         gate,
		authHandler:  authH,
		adminHandler: adminH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(infra.TracingMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (Открыты для всех) ---
	r.Group(func(r chi.Router) {
		r.Post("/auth/register", s.authHandler.Register)
		r.Post("/auth/login", s.authHandler.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			infra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware)

		// Любая роль
		r.Post("/auth/upgrade-to-gold", s.authHandler.UpgradeToGold)

		// GOLD и выше
		r.With(s.gate.Require(domain.GoldTier)).Get("/auth/gold-features", s.authHandler.GoldFeatures)

		// Админка: отчеты и управление монитором
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(s.gate.Require(domain.AdminOnly))

			r.Get("/monitored-users", s.adminHandler.MonitoredUsers)
			r.Get("/suspicious-activity", s.adminHandler.SuspiciousActivity)
			r.Get("/activity-logs", s.adminHandler.ActivityLogs)
			r.Get("/user-logs/{actorID}", s.adminHandler.UserLogs)

			r.Route("/monitor", func(r chi.Router) {
				r.Get("/", s.adminHandler.MonitorStatus)
				r.Post("/start", s.adminHandler.MonitorStart)
				r.Post("/stop", s.adminHandler.MonitorStop)
				r.Post("/scan", s.adminHandler.MonitorScan)
			})
		})
	})
}

// accessLog — структурированный журнал запросов через zap
func (s *ConsoleServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("trace_id", infra.TraceID(r.Context())),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()))
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
