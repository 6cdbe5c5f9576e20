package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"USER": RoleUser, "gold": RoleGold, " Admin ": RoleAdmin} {
		got, err := ParseRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("ROOT")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRole_ZeroValueInvalid(t *testing.T) {
	var r Role
	assert.False(t, r.Valid())
	assert.False(t, AnyRole.Contains(r))
	_, err := r.Value()
	assert.Error(t, err)
}

func TestRole_JSON(t *testing.T) {
	raw, err := json.Marshal(ActorSummary{ID: 1, Role: RoleGold})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"role":"GOLD"`)

	var s ActorSummary
	require.NoError(t, json.Unmarshal([]byte(`{"role":"ADMIN"}`), &s))
	assert.Equal(t, RoleAdmin, s.Role)
	assert.Error(t, json.Unmarshal([]byte(`{"role":"ROOT"}`), &s))
}

func TestRole_Scan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan("GOLD"))
	assert.Equal(t, RoleGold, r)
	require.NoError(t, r.Scan([]byte("USER")))
	assert.Equal(t, RoleUser, r)
	assert.Error(t, r.Scan(int64(1)))
}

func TestRoleSet(t *testing.T) {
	cases := []struct {
		set  RoleSet
		role Role
		want bool
	}{
		{GoldTier, RoleUser, false},
		{GoldTier, RoleGold, true},
		{GoldTier, RoleAdmin, true},
		{AdminOnly, RoleGold, false},
		{AdminOnly, RoleAdmin, true},
		{AnyRole, RoleUser, true},
		{NewRoleSet(), RoleAdmin, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.set.Contains(tc.role), "%s contains %s", tc.set, tc.role)
	}
}

func TestActionRecord_Validate(t *testing.T) {
	rec := RequestRecord(3, "GET", "/api/admin/activity-logs")
	require.NoError(t, rec.Validate())
	assert.Equal(t, "GET /api/admin/activity-logs", rec.Detail)
	assert.Equal(t, ActionRead, rec.Kind)

	bad := []ActionRecord{
		{Kind: ActionRead, TargetType: TargetRequest},
		{ActorID: 1, Kind: "PATCH", TargetType: TargetRequest},
		{ActorID: 1, Kind: ActionCreate},
	}
	for _, r := range bad {
		assert.ErrorIs(t, r.Validate(), ErrInvalidInput)
	}
}
