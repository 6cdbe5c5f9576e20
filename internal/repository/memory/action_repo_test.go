package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
)

func setup(t *testing.T) (*ActorRepo, *ActionRepo, *time.Time) {
	t.Helper()
	now := time.Unix(1000, 0).UTC()
	actors := NewActorRepo()
	actions := NewActionRepo(actors)
	actions.SetClock(func() time.Time { return now })
	return actors, actions, &now
}

func saveActor(t *testing.T, r *ActorRepo, email string) int64 {
	t.Helper()
	a := &domain.Actor{Email: email, Role: domain.RoleUser}
	require.NoError(t, r.Save(context.Background(), a))
	return a.ID
}

func TestActionRepo_AppendValidates(t *testing.T) {
	ctx := context.Background()
	actors, actions, _ := setup(t)
	id := saveActor(t, actors, "a@example.com")

	_, err := actions.Append(ctx, domain.RequestRecord(404, "GET", "/x"))
	assert.ErrorIs(t, err, domain.ErrUnknownActor)

	_, err = actions.Append(ctx, domain.ActionRecord{ActorID: id, Kind: "PATCH", TargetType: "Request"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	recID, err := actions.Append(ctx, domain.RequestRecord(id, "GET", "/x"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), recID)
}

func TestActionRepo_RecentOrdering(t *testing.T) {
	ctx := context.Background()
	actors, actions, now := setup(t)
	id := saveActor(t, actors, "a@example.com")

	base := *now
	for i := 1; i <= 3; i++ {
		*now = base.Add(time.Duration(i) * time.Second)
		_, err := actions.Append(ctx, domain.RequestRecord(id, "GET", "/x"))
		require.NoError(t, err)
	}

	recs, err := actions.RecentByTimestampDesc(ctx, 2, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, base.Add(3*time.Second), recs[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Second), recs[1].Timestamp)

	recs, err = actions.RecentByTimestampDesc(ctx, 0, audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestActionRepo_FilterAndCount(t *testing.T) {
	ctx := context.Background()
	actors, actions, now := setup(t)
	a := saveActor(t, actors, "a@example.com")
	b := saveActor(t, actors, "b@example.com")

	start := *now
	for i := 0; i < 4; i++ {
		*now = start.Add(time.Duration(i) * 10 * time.Second)
		_, err := actions.Append(ctx, domain.RequestRecord(a, "GET", "/x"))
		require.NoError(t, err)
	}
	_, err := actions.Append(ctx, domain.RequestRecord(b, "GET", "/y"))
	require.NoError(t, err)

	n, err := actions.CountSince(ctx, a, start.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "since is inclusive")

	n, err = actions.CountSince(ctx, b, start)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := actions.RecentByTimestampDesc(ctx, 100, audit.Filter{ActorID: b})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "GET /y", recs[0].Detail)
}

func TestActionRepo_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	actors, actions, _ := setup(t)
	id := saveActor(t, actors, "a@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := actions.Append(ctx, domain.RequestRecord(id, "GET", "/x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := actions.CountSince(ctx, id, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
}
