package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, &infra.Config{Storage: infra.StorageConfig{Driver: "memory"}})
	require.NoError(t, err)
	defer s.Close()

	a := &domain.Actor{Email: "a@example.com", Role: domain.RoleUser}
	require.NoError(t, s.Actors.Save(ctx, a))
	_, err = s.Actions.Append(ctx, domain.RequestRecord(a.ID, "GET", "/"))
	require.NoError(t, err)

	_, err = s.Actions.Append(ctx, domain.RequestRecord(a.ID+1, "GET", "/"))
	assert.ErrorIs(t, err, domain.ErrUnknownActor)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &infra.Config{Storage: infra.StorageConfig{Driver: "sqlite"}})
	assert.Error(t, err)
}
