package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

func TestMapErr(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"fk", pgErr("23503"), domain.ErrUnknownActor},
		{"unique", pgErr("23505"), domain.ErrConflict},
		{"connection", pgErr("08001"), domain.ErrStoreUnavailable},
		{"shutdown", pgErr("57P01"), domain.ErrStoreUnavailable},
		{"too many", pgErr("53300"), domain.ErrStoreUnavailable},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), domain.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapErr("op", tc.in), tc.want)
		})
	}

	assert.Nil(t, mapErr("op", nil))

	plain := mapErr("op", errors.New("syntax"))
	assert.False(t, errors.Is(plain, domain.ErrStoreUnavailable))
	assert.False(t, errors.Is(mapErr("op", pgErr("42601")), domain.ErrStoreUnavailable))
}
