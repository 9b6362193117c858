package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMembershipRepo struct {
	roles map[int64]map[int64][]Role
	err   error
}

func (r *memoryMembershipRepo) QualifyingRoles(ctx context.Context, userID, leagueID int64) ([]Role, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.roles[userID][leagueID], nil
}

func TestResolveRolePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		roles []Role
		want  Role
	}{
		{"single player", []Role{RolePlayer}, RolePlayer},
		{"host and captain resolves to host", []Role{RoleCaptain, RoleHost}, RoleHost},
		{"governor and captain resolves to governor", []Role{RoleCaptain, RoleGovernor}, RoleGovernor},
		{"captain and player resolves to captain", []Role{RolePlayer, RoleCaptain}, RoleCaptain},
		{"order independent", []Role{RoleHost, RolePlayer, RoleGovernor}, RoleHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &memoryMembershipRepo{roles: map[int64]map[int64][]Role{7: {3: tc.roles}}}
			resolver := NewResolver(repo)
			role, err := resolver.ResolveRole(context.Background(), 7, 3)
			require.NoError(t, err)
			assert.Equal(t, tc.want, role)
		})
	}
}

func TestResolveRoleUnaffiliated(t *testing.T) {
	resolver := NewResolver(&memoryMembershipRepo{roles: map[int64]map[int64][]Role{}})
	_, err := resolver.ResolveRole(context.Background(), 7, 3)
	assert.ErrorIs(t, err, ErrUnaffiliated)
}

func TestResolveRoleIgnoresUnknownRows(t *testing.T) {
	repo := &memoryMembershipRepo{roles: map[int64]map[int64][]Role{7: {3: {Role("referee"), RolePlayer}}}}
	resolver := NewResolver(repo)
	role, err := resolver.ResolveRole(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, RolePlayer, role)

	repo.roles[7][3] = []Role{Role("referee")}
	_, err = resolver.ResolveRole(context.Background(), 7, 3)
	assert.ErrorIs(t, err, ErrUnaffiliated)
}

func TestResolveRoleRepositoryError(t *testing.T) {
	wantErr := errors.New("connection reset")
	resolver := NewResolver(&memoryMembershipRepo{err: wantErr})
	_, err := resolver.ResolveRole(context.Background(), 7, 3)
	assert.ErrorIs(t, err, wantErr)
}
