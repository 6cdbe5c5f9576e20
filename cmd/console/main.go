package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/console/handler"
	"github.com/xela07ax/hotel-guard/internal/console/server"
	"github.com/xela07ax/hotel-guard/internal/console/service"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/infra/auth"
	"github.com/xela07ax/hotel-guard/internal/repository"
	"github.com/xela07ax/hotel-guard/internal/risk"
)

// Имя сервиса в gRPC health: SERVING, пока монитор запущен
const monitorHealthService = "hotelguard.ThresholdMonitor"

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		// Логгера еще нет
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("console exited with error", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	// 2. Хранилища
	stores, err := repository.Open(appCtx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	actionLog := audit.NewReliableLog(stores.Actions, audit.ReliabilityConfig{
		CBMaxRequests: cfg.Storage.CBMaxRequests,
		CBInterval:    cfg.Storage.CBInterval,
		CBTimeout:     cfg.Storage.CBTimeout,
		CBFailures:    cfg.Storage.CBFailures,
		RetryAttempts: cfg.Storage.RetryAttempts,
		RetryDelay:    cfg.Storage.RetryDelay,
	}, metrics, logger)

	// 3. Redis: сигналы о пометке (опционально)
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(appCtx).Err(); err != nil {
			logger.Warn("redis unreachable, monitored signals disabled", zap.Error(err))
			rdb = nil
		}
	}

	// 4. gRPC health: состояние монитора для оркестратора
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(monitorHealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	// 5. Пороговый монитор
	monitorOpts := []risk.Option{
		risk.WithLogger(logger),
		risk.WithMetrics(metrics),
		risk.WithStateHook(func(running bool) {
			status := healthpb.HealthCheckResponse_NOT_SERVING
			if running {
				status = healthpb.HealthCheckResponse_SERVING
			}
			healthSrv.SetServingStatus(monitorHealthService, status)
		}),
	}
	var watchlist *risk.Watchlist
	if rdb != nil {
		monitorOpts = append(monitorOpts, risk.WithNotifier(risk.NewRedisNotifier(rdb, logger)))

		watchlist = risk.NewWatchlist(rdb, metrics, logger)
		if err := watchlist.Warmup(appCtx, stores.Actors); err != nil {
			logger.Warn("watchlist warm-up failed", zap.Error(err))
		}
		go watchlist.Listen(appCtx)
	}
	monitor, err := risk.NewMonitor(risk.Config{
		Window:       cfg.Monitor.Window,
		Threshold:    cfg.Monitor.Threshold,
		PollInterval: cfg.Monitor.PollInterval,
	}, stores.Actors, actionLog, monitorOpts...)
	if err != nil {
		return err
	}

	// 6. Слои API (Dependency Injection)
	tokens, err := auth.NewTokenServiceFromConfig(cfg.Auth, logger)
	if err != nil {
		return err
	}
	accounts := service.NewAccountService(stores.Actors, actionLog, tokens, cfg.Auth.BcryptCost, logger)
	reports := service.NewReportService(stores.Actors, actionLog, monitor)
	gate := auth.NewGate(tokens, stores.Actors, actionLog, metrics, logger)
	if watchlist != nil {
		gate.WithWatchlist(watchlist)
	}

	api := server.NewConsoleServer(logger, gate,
		handler.NewAuthHandler(accounts, cfg.Auth.LoginRate, cfg.Auth.LoginBurst, logger),
		handler.NewAdminHandler(reports, monitor, logger),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Экспортируем метрики для Prometheus
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("gRPC health server started", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	if cfg.Monitor.Autostart {
		monitor.Start()
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-srvErr:
		monitor.Stop()
		return err
	}
	logger.Info("console stopping...")

	// Сначала монитор: текущий скан доигрывается, следующий не начнется
	monitor.Stop()
	healthSrv.Shutdown()

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	cancel()

	logger.Info("console exited properly")
	return nil
}
