package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/console/service"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/repository"
	"github.com/xela07ax/hotel-guard/internal/risk"
)

// app — зависимости команд. Поднимается из конфигурации в PersistentPreRunE,
// тесты подставляют готовый.
type app struct {
	cfg      *infra.Config
	logger   *zap.Logger
	actors   repository.ActorStore
	log      audit.Log
	accounts *service.AccountService
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *infra.Config) (*app, error) {
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}
	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		actors:  stores.Actors,
		log:     stores.Actions,
		closers: []func() error{stores.Close},
	}
	a.accounts = service.NewAccountService(stores.Actors, stores.Actions, nil, cfg.Auth.BcryptCost, logger)

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cleared signals disabled", zap.Error(err))
		} else {
			a.accounts.WithClearedNotifier(risk.NewRedisNotifier(rdb, logger))
		}
	}
	return a, nil
}

func newRootCmd(injected *app) *cobra.Command {
	st := &struct{ app *app }{app: injected}

	cmd := &cobra.Command{
		Use:           "actorctl",
		Short:         "Operator tooling for the hotel activity monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if st.app != nil {
				return nil
			}
			cfg, err := infra.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if st.app != nil && injected == nil {
				st.app.close()
			}
		},
	}

	get := func() *app { return st.app }
	cmd.AddCommand(newCreateCmd(get))
	cmd.AddCommand(newPromoteCmd(get))
	cmd.AddCommand(newUnflagCmd(get))
	cmd.AddCommand(newSimulateCmd(get))
	cmd.AddCommand(newScanCmd(get))
	return cmd
}
