package rbac

// Role represents a user's standing within a single league. A user may hold
// different roles in different leagues; exactly one effective role applies per
// league context.
type Role string

const (
	// RoleHost owns league configuration.
	RoleHost Role = "host"
	// RoleGovernor has league-wide oversight below host.
	RoleGovernor Role = "governor"
	// RoleCaptain leads a team within the league.
	RoleCaptain Role = "captain"
	// RolePlayer is a regular league member.
	RolePlayer Role = "player"
)

// rolePrecedence orders roles when a user holds several in the same league.
// Higher wins: host > governor > captain > player.
var rolePrecedence = map[Role]int{
	RoleHost:     4,
	RoleGovernor: 3,
	RoleCaptain:  2,
	RolePlayer:   1,
}

// Known reports whether the role is part of the precedence table.
func (r Role) Known() bool {
	_, ok := rolePrecedence[r]
	return ok
}

// Outranks reports whether r takes precedence over other.
func (r Role) Outranks(other Role) bool {
	return rolePrecedence[r] > rolePrecedence[other]
}

// League permissions.
const (
	PermLeagueCreate    = "league.create"
	PermLeagueConfigure = "league.configure"
	PermLeagueDelete    = "league.delete"
	PermGovernorAssign  = "governor.assign"

	PermActivityConfigure = "activity.configure"

	PermMembersView = "members.view"
	PermTeamsManage = "teams.manage"

	PermEntriesSubmit       = "entries.submit"
	PermEntriesViewOwn      = "entries.view.own"
	PermEntriesViewTeam     = "entries.view.team"
	PermEntriesViewAny      = "entries.view.any"
	PermEntriesValidateTeam = "entries.validate.team"
	PermEntriesValidateAny  = "entries.validate.any"
	PermEntriesOverride     = "entries.override"

	PermDuesPay     = "dues.pay"
	PermFinanceView = "finance.view"
)

// LeagueScopes lists all league-scoped permissions.
func LeagueScopes() []string {
	return []string{
		PermLeagueCreate,
		PermLeagueConfigure,
		PermLeagueDelete,
		PermGovernorAssign,
		PermActivityConfigure,
		PermMembersView,
		PermTeamsManage,
		PermEntriesSubmit,
		PermEntriesViewOwn,
		PermEntriesViewTeam,
		PermEntriesViewAny,
		PermEntriesValidateTeam,
		PermEntriesValidateAny,
		PermEntriesOverride,
		PermDuesPay,
		PermFinanceView,
	}
}
