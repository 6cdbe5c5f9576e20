package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/repository/memory"
)

type fixedWindow struct {
	window    time.Duration
	threshold int64
}

func (w fixedWindow) Window() time.Duration { return w.window }
func (w fixedWindow) Threshold() int64      { return w.threshold }

type reportFixture struct {
	actors  *memory.ActorRepo
	actions *memory.ActionRepo
	svc     *ReportService
	now     time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	f.actors = memory.NewActorRepo()
	f.actions = memory.NewActionRepo(f.actors)
	f.actions.SetClock(func() time.Time { return f.now })
	f.svc = NewReportService(f.actors, f.actions, fixedWindow{window: time.Minute, threshold: 3})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *reportFixture) actor(t *testing.T, email string) *domain.Actor {
	t.Helper()
	a := &domain.Actor{Email: email, FirstName: "F", LastName: "L", CredentialHash: "x", Role: domain.RoleUser}
	require.NoError(t, f.actors.Save(context.Background(), a))
	return a
}

func (f *reportFixture) act(t *testing.T, actorID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.actions.Append(context.Background(), domain.RequestRecord(actorID, "GET", "/hotels"))
		require.NoError(t, err)
	}
}

func TestReport_SuspiciousIndependentOfFlag(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	loud := f.actor(t, "loud@example.com")
	quietFlagged := f.actor(t, "quiet@example.com")
	f.actor(t, "idle@example.com")

	f.act(t, quietFlagged.ID, 5)
	_, err := f.actors.MarkMonitored(ctx, quietFlagged.ID)
	require.NoError(t, err)

	// Через две минуты старая активность вышла из окна
	f.now = f.now.Add(2 * time.Minute)
	f.act(t, loud.ID, 3)

	suspicious, err := f.svc.SuspiciousActors(ctx)
	require.NoError(t, err)
	require.Len(t, suspicious, 1)
	assert.Equal(t, loud.ID, suspicious[0].ID)
	assert.Equal(t, int64(3), suspicious[0].Count)
	assert.False(t, suspicious[0].Monitored)

	monitored, err := f.svc.MonitoredActors(ctx)
	require.NoError(t, err)
	require.Len(t, monitored, 1)
	assert.Equal(t, quietFlagged.ID, monitored[0].ID)
}

func TestReport_RecentTrail(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	a := f.actor(t, "a@example.com")
	b := f.actor(t, "b@example.com")

	f.act(t, a.ID, 1)
	f.now = f.now.Add(time.Second)
	f.act(t, b.ID, 1)
	f.now = f.now.Add(time.Second)
	f.act(t, a.ID, 1)

	trail, err := f.svc.RecentTrail(ctx)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "a@example.com", trail[0].Actor.Email)
	assert.Equal(t, "b@example.com", trail[1].Actor.Email)
	assert.Equal(t, "a@example.com", trail[2].Actor.Email)
	assert.True(t, trail[0].Timestamp.After(trail[1].Timestamp))
	assert.Equal(t, "GET /hotels", trail[0].Detail)
}

func TestReport_RecentTrailCapped(t *testing.T) {
	f := newReportFixture(t)
	a := f.actor(t, "a@example.com")
	f.act(t, a.ID, 120)

	trail, err := f.svc.RecentTrail(context.Background())
	require.NoError(t, err)
	assert.Len(t, trail, 100)
}

func TestReport_ActorHistory(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	a := f.actor(t, "a@example.com")
	b := f.actor(t, "b@example.com")
	f.act(t, a.ID, 2)
	f.act(t, b.ID, 1)

	recs, err := f.svc.ActorHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, a.ID, r.ActorID)
	}

	_, err = f.svc.ActorHistory(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty := f.actor(t, "c@example.com")
	recs, err = f.svc.ActorHistory(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
