package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
)

// ActorChecker — источник ссылочной целостности для журнала.
type ActorChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ActionRepo — журнал действий в памяти. Записи только добавляются.
type ActionRepo struct {
	mu      sync.RWMutex
	actors  ActorChecker
	byActor map[int64][]domain.ActionRecord
	all     []domain.ActionRecord
	nextID  int64
	now     func() time.Time
}

func NewActionRepo(actors ActorChecker) *ActionRepo {
	return &ActionRepo{
		actors:  actors,
		byActor: make(map[int64][]domain.ActionRecord),
		now:     time.Now,
	}
}

func (r *ActionRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Append ставит время создания сам: поле Timestamp входной записи игнорируется.
func (r *ActionRepo) Append(ctx context.Context, rec domain.ActionRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	ok, err := r.actors.Exists(ctx, rec.ActorID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("memory: append for actor %d: %w", rec.ActorID, domain.ErrUnknownActor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	rec.Timestamp = r.now()
	r.all = append(r.all, rec)
	r.byActor[rec.ActorID] = append(r.byActor[rec.ActorID], rec)
	return rec.ID, nil
}

func (r *ActionRepo) CountSince(_ context.Context, actorID int64, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, rec := range r.byActor[actorID] {
		if !rec.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *ActionRepo) RecentByTimestampDesc(_ context.Context, limit int, f audit.Filter) ([]domain.ActionRecord, error) {
	if limit <= 0 {
		return []domain.ActionRecord{}, nil
	}

	r.mu.RLock()
	src := r.all
	if f.ActorID != 0 {
		src = r.byActor[f.ActorID]
	}
	out := make([]domain.ActionRecord, len(src))
	copy(out, src)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ audit.Log = (*ActionRepo)(nil)
