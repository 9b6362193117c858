package rbac

import "sort"

// permissionTable is the process-wide Role → capability mapping. It is built
// once at package init and never mutated afterwards. Lookups against roles
// absent from the table deny everything.
var permissionTable map[Role]map[string]struct{}

func init() {
	player := permSet(
		PermEntriesSubmit,
		PermEntriesViewOwn,
		PermMembersView,
		PermDuesPay,
	)

	// Captain keeps player-level access plus team-scoped oversight.
	captain := merge(player, permSet(
		PermTeamsManage,
		PermEntriesViewTeam,
		PermEntriesValidateTeam,
	))

	governor := merge(captain, permSet(
		PermEntriesViewAny,
		PermEntriesValidateAny,
		PermEntriesOverride,
		PermFinanceView,
	))

	host := merge(governor, permSet(
		PermLeagueCreate,
		PermLeagueConfigure,
		PermLeagueDelete,
		PermGovernorAssign,
		PermActivityConfigure,
	))

	permissionTable = map[Role]map[string]struct{}{
		RolePlayer:   player,
		RoleCaptain:  captain,
		RoleGovernor: governor,
		RoleHost:     host,
	}
}

// Authorize reports whether the role is granted the permission. It is a pure
// lookup over the permission table and fails closed: combinations not present
// in the table are denied.
func Authorize(role Role, permission string) bool {
	perms, ok := permissionTable[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

// AuthorizeAny reports whether the role holds at least one of the permissions.
func AuthorizeAny(role Role, permissions ...string) bool {
	for _, p := range permissions {
		if Authorize(role, p) {
			return true
		}
	}
	return false
}

// Permissions returns a sorted copy of the role's capability set.
func Permissions(role Role) []string {
	perms, ok := permissionTable[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func merge(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, set := range sets {
		for p := range set {
			out[p] = struct{}{}
		}
	}
	return out
}
