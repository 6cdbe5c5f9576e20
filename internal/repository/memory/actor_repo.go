package memory

/*
Файл actor_repo.go — реестр акторов в оперативной памяти.
Используется в режиме storage.driver=memory (локальная разработка) и в тестах.
Каждая запись меняется под мьютексом целиком, поэтому запись флага атомарна для актора,
а читатели всегда видят согласованную копию.
*/

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

type ActorRepo struct {
	mu      sync.RWMutex
	byID    map[int64]domain.Actor
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

func NewActorRepo() *ActorRepo {
	return &ActorRepo{
		byID:    make(map[int64]domain.Actor),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// SetClock подменяет часы (тесты).
func (r *ActorRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *ActorRepo) GetByID(_ context.Context, id int64) (*domain.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("memory: actor %d: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (r *ActorRepo) GetByEmail(_ context.Context, email string) (*domain.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("memory: actor %q: %w", email, domain.ErrNotFound)
	}
	a := r.byID[id]
	return &a, nil
}

// Exists — проверка ссылочной целостности для журнала.
func (r *ActorRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}

// Save создает актора (ID == 0) или перезаписывает существующего.
// Флаг monitored при обновлении не трогается: его меняют только MarkMonitored и ClearMonitored.
func (r *ActorRepo) Save(_ context.Context, a *domain.Actor) error {
	if !a.Role.Valid() {
		return fmt.Errorf("%w: actor role is required", domain.ErrInvalidInput)
	}
	email := normalizeEmail(a.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.byEmail[email]; taken && owner != a.ID {
		return fmt.Errorf("memory: email %q: %w", email, domain.ErrConflict)
	}

	if a.ID == 0 {
		r.nextID++
		a.ID = r.nextID
		a.CreatedAt = r.now()
	} else {
		prev, ok := r.byID[a.ID]
		if !ok {
			return fmt.Errorf("memory: actor %d: %w", a.ID, domain.ErrNotFound)
		}
		if prev.Email != email {
			delete(r.byEmail, prev.Email)
		}
		a.Monitored = prev.Monitored
	}

	a.Email = email
	r.byID[a.ID] = *a
	r.byEmail[email] = a.ID
	return nil
}

// MarkMonitored атомарно переводит флаг false→true.
// Возвращает false, если актор уже был помечен.
func (r *ActorRepo) MarkMonitored(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return false, fmt.Errorf("memory: actor %d: %w", id, domain.ErrNotFound)
	}
	if a.Monitored {
		return false, nil
	}
	a.Monitored = true
	r.byID[id] = a
	return true, nil
}

// ClearMonitored атомарно переводит флаг true→false.
// Возвращает false, если флаг уже был снят.
func (r *ActorRepo) ClearMonitored(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return false, fmt.Errorf("memory: actor %d: %w", id, domain.ErrNotFound)
	}
	if !a.Monitored {
		return false, nil
	}
	a.Monitored = false
	r.byID[id] = a
	return true, nil
}

func (r *ActorRepo) FindAll(_ context.Context) ([]domain.Actor, error) {
	return r.filter(func(domain.Actor) bool { return true }), nil
}

func (r *ActorRepo) FindMonitored(_ context.Context) ([]domain.Actor, error) {
	return r.filter(func(a domain.Actor) bool { return a.Monitored }), nil
}

func (r *ActorRepo) filter(keep func(domain.Actor) bool) []domain.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Actor, 0, len(r.byID))
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
