package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/repository/memory"
)

type stubTokens struct{ issued []int64 }

func (s *stubTokens) Issue(actorID int64) (string, time.Time, error) {
	s.issued = append(s.issued, actorID)
	return "token", time.Now().Add(time.Hour), nil
}

type stubCleared struct{ ids []int64 }

func (s *stubCleared) ActorCleared(_ context.Context, id int64) error {
	s.ids = append(s.ids, id)
	return nil
}

func newAccounts(t *testing.T) (*AccountService, *memory.ActorRepo, *memory.ActionRepo, *stubTokens) {
	t.Helper()
	actors := memory.NewActorRepo()
	actions := memory.NewActionRepo(actors)
	tokens := &stubTokens{}
	return NewAccountService(actors, actions, tokens, bcrypt.MinCost, zap.NewNop()), actors, actions, tokens
}

func history(t *testing.T, log audit.Log, actorID int64) []domain.ActionRecord {
	t.Helper()
	recs, err := log.RecentByTimestampDesc(context.Background(), 100, audit.Filter{ActorID: actorID})
	require.NoError(t, err)
	return recs
}

func TestAccount_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, actors, actions, tokens := newAccounts(t)

	a, err := svc.Register(ctx, domain.RegisterRequest{
		Email: " Guest@Example.com ", Password: "password123", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, a.Role)
	assert.Equal(t, "guest@example.com", a.Email)
	assert.NotEqual(t, "password123", a.CredentialHash)

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "guest@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, a.ID, resp.Actor.ID)
	assert.Equal(t, []int64{a.ID}, tokens.issued)

	stored, err := actors.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastAuthAt)

	recs := history(t, actions, a.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, "User logged in", recs[0].Detail)
	assert.Equal(t, domain.ActionRead, recs[0].Kind)
	assert.Equal(t, "User registered", recs[1].Detail)
	assert.Equal(t, domain.ActionCreate, recs[1].Kind)
}

func TestAccount_RegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAccounts(t)

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "nope", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "A@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAccount_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _, tokens := newAccounts(t)
	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.Empty(t, tokens.issued)
}

func TestAccount_UpgradeToGold(t *testing.T) {
	ctx := context.Background()
	svc, _, actions, _ := newAccounts(t)
	a, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	up, err := svc.UpgradeToGold(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGold, up.Role)

	// Повторный апгрейд ничего не пишет
	_, err = svc.UpgradeToGold(ctx, a.ID)
	require.NoError(t, err)

	recs := history(t, actions, a.ID)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.ActionUpdate, recs[0].Kind)
	assert.Equal(t, "User upgraded to Gold tier", recs[0].Detail)
}

func TestAccount_OperatorActions(t *testing.T) {
	ctx := context.Background()
	svc, actors, _, _ := newAccounts(t)
	cleared := &stubCleared{}
	svc.WithClearedNotifier(cleared)

	admin, err := svc.CreateWithRole(ctx, domain.RegisterRequest{Email: "root@example.com", Password: "password123"}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	a, err := svc.Register(ctx, domain.RegisterRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := svc.SetRole(ctx, "a@example.com", domain.RoleGold)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGold, got.Role)

	_, err = svc.SetRole(ctx, "a@example.com", domain.Role(0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	flipped, err := actors.MarkMonitored(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, flipped)

	got, err = svc.ClearMonitored(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, got.Monitored)
	assert.Equal(t, []int64{a.ID}, cleared.ids)

	// Повторный сброс — no-op
	_, err = svc.ClearMonitored(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, cleared.ids, 1)

	_, err = svc.ClearMonitored(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// flagOnRead помечает актора сразу после чтения по email, как это сделал бы
// параллельный цикл монитора между чтением и записью логина.
type flagOnRead struct {
	*memory.ActorRepo
}

func (f flagOnRead) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	a, err := f.ActorRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if _, err := f.ActorRepo.MarkMonitored(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

func TestAccount_StaleReadKeepsMonitoredFlag(t *testing.T) {
	ctx := context.Background()
	actors := memory.NewActorRepo()
	actions := memory.NewActionRepo(actors)
	plain := NewAccountService(actors, actions, &stubTokens{}, bcrypt.MinCost, zap.NewNop())
	a, err := plain.Register(ctx, domain.RegisterRequest{Email: "guest@example.com", Password: "password123"})
	require.NoError(t, err)

	svc := NewAccountService(flagOnRead{actors}, actions, &stubTokens{}, bcrypt.MinCost, zap.NewNop())
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "guest@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := actors.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Monitored)
	require.NotNil(t, got.LastAuthAt)

	_, err = svc.SetRole(ctx, "guest@example.com", domain.RoleGold)
	require.NoError(t, err)
	got, err = actors.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Monitored)
	assert.Equal(t, domain.RoleGold, got.Role)

	// Флаг уже стоит: монитор не получит второго перехода
	flipped, err := actors.MarkMonitored(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, flipped)
}
