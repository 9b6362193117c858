package rbac

import (
	"context"
	"errors"
)

// ErrUnaffiliated indicates the user has no standing in the league.
var ErrUnaffiliated = errors.New("rbac: user not affiliated with league")

// MembershipRepository supplies the raw role facts for a user within a league:
// host record, membership role rows and team captaincy.
type MembershipRepository interface {
	QualifyingRoles(ctx context.Context, userID, leagueID int64) ([]Role, error)
}

// Resolver determines a user's effective role within a league.
type Resolver struct {
	repo MembershipRepository
}

// NewResolver constructs a Resolver.
func NewResolver(repo MembershipRepository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveRole returns the single effective role for the user in the league.
// When the user holds multiple qualifying roles the highest-precedence role
// wins. Returns ErrUnaffiliated when no qualifying role exists.
func (r *Resolver) ResolveRole(ctx context.Context, userID, leagueID int64) (Role, error) {
	roles, err := r.repo.QualifyingRoles(ctx, userID, leagueID)
	if err != nil {
		return "", err
	}
	var effective Role
	for _, role := range roles {
		if !role.Known() {
			continue
		}
		if effective == "" || role.Outranks(effective) {
			effective = role
		}
	}
	if effective == "" {
		return "", ErrUnaffiliated
	}
	return effective, nil
}
