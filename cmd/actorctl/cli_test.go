package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/console/service"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/repository/memory"
)

func testApp(t *testing.T) *app {
	t.Helper()
	actors := memory.NewActorRepo()
	actions := memory.NewActionRepo(actors)
	return &app{
		cfg: &infra.Config{Monitor: infra.MonitorConfig{
			Window: time.Minute, Threshold: 5, PollInterval: time.Minute,
		}},
		logger:   zap.NewNop(),
		actors:   actors,
		log:      actions,
		accounts: service.NewAccountService(actors, actions, nil, bcrypt.MinCost, zap.NewNop()),
	}
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_CreateAndPromote(t *testing.T) {
	a := testApp(t)

	out, err := execute(t, a, "create", "--email", "ops@example.com", "--password", "password123", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "role=ADMIN")

	_, err = execute(t, a, "create", "--email", "guest@example.com", "--password", "password123")
	require.NoError(t, err)

	out, err = execute(t, a, "promote", "--email", "guest@example.com", "--role", "GOLD")
	require.NoError(t, err)
	assert.Contains(t, out, "role=GOLD")

	_, err = execute(t, a, "promote", "--email", "guest@example.com", "--role", "ROOT")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, a, "promote", "--email", "guest@example.com")
	assert.Error(t, err, "role flag is required")
}

func TestCLI_SimulateScanUnflag(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	out, err := execute(t, a, "simulate", "--email", "attacker@test.com", "--ops", "6", "--delay", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "appended 6 actions")

	attacker, err := a.actors.GetByEmail(ctx, "attacker@test.com")
	require.NoError(t, err)
	recs, err := a.log.RecentByTimestampDesc(ctx, 100, audit.Filter{ActorID: attacker.ID})
	require.NoError(t, err)
	require.Len(t, recs, 6)
	assert.Equal(t, "Simulated attack operation 6", recs[0].Detail)

	out, err = execute(t, a, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "flagged=[1]")

	attacker, err = a.actors.GetByEmail(ctx, "attacker@test.com")
	require.NoError(t, err)
	assert.True(t, attacker.Monitored)

	out, err = execute(t, a, "unflag", "--email", "attacker@test.com")
	require.NoError(t, err)
	assert.Contains(t, out, "monitored=false")

	_, err = execute(t, a, "simulate", "--ops", "0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
