package rbac

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
)

type roleContextKey struct{}

// ContextWithRole stores the resolved league role in context.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the resolved role placed by the middleware.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(Role)
	return role, ok
}

// Middleware wires league-scoped authorization for HTTP handlers. Routes using
// it must carry a {leagueID} URL parameter.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Require ensures the acting user holds at least one of the permissions in the
// league named by the request. The resolved role is placed in the request
// context for team-scope checks further down.
func (m Middleware) Require(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := shared.CurrentUserID(r)
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
			if err != nil {
				httpx.RespondError(w, httpx.ErrNotFound)
				return
			}
			role, err := m.Resolver.ResolveRole(r.Context(), userID, leagueID)
			if err != nil {
				if errors.Is(err, ErrUnaffiliated) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
				if m.Logger != nil {
					m.Logger.Error("rbac resolve role", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if len(perms) > 0 && !AuthorizeAny(role, perms...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}
