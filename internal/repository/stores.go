// Package repository выбирает реализацию хранилищ по storage.driver.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/repository/memory"
	"github.com/xela07ax/hotel-guard/internal/repository/postgres"
)

// ActorStore — полный контракт реестра акторов.
type ActorStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	Save(ctx context.Context, a *domain.Actor) error
	FindAll(ctx context.Context) ([]domain.Actor, error)
	FindMonitored(ctx context.Context) ([]domain.Actor, error)
	MarkMonitored(ctx context.Context, id int64) (bool, error)
	ClearMonitored(ctx context.Context, id int64) (bool, error)
}

type Stores struct {
	Actors  ActorStore
	Actions audit.Log
	db      *sql.DB
}

func (s *Stores) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Open поднимает хранилища. Для postgres проверяет доступность базы с таймаутом.
func Open(ctx context.Context, cfg *infra.Config) (*Stores, error) {
	switch cfg.Storage.Driver {
	case "memory":
		actors := memory.NewActorRepo()
		return &Stores{Actors: actors, Actions: memory.NewActionRepo(actors)}, nil
	case "postgres":
		db, err := postgres.Open(cfg.Database.URL, int(cfg.Database.MaxConns), int(cfg.Database.MinConns))
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := postgres.Ping(pingCtx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("database unreachable: %w", err)
		}
		return &Stores{
			Actors:  postgres.NewActorRepo(db),
			Actions: postgres.NewActionRepo(db),
			db:      db,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
