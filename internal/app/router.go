package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fitleague/fitleague/internal/auth"
	"github.com/fitleague/fitleague/internal/entries"
	"github.com/fitleague/fitleague/internal/leagues"
	"github.com/fitleague/fitleague/internal/observability"
	"github.com/fitleague/fitleague/internal/payments"
	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
	"github.com/fitleague/fitleague/internal/teams"
	"github.com/fitleague/fitleague/internal/users"
	"github.com/fitleague/fitleague/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	LeaguesHandler  *leagues.Handler
	TeamsHandler    *teams.Handler
	EntriesHandler  *entries.Handler
	PaymentsHandler *payments.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Session and CSRF middleware apply to
// the API surface only; the payment webhook authenticates via its own
// signature and stays outside both.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwConfig := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	for _, mw := range MiddlewareStack(mwConfig) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.PaymentsHandler != nil {
		params.PaymentsHandler.MountWebhook(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(mwConfig))
		r.Use(CSRFMiddleware(mwConfig))

		r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
		})

		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		r.Route("/leagues", func(r chi.Router) {
			params.LeaguesHandler.MountRoutes(r)
			r.Route("/{leagueID}", func(r chi.Router) {
				params.LeaguesHandler.MountLeagueRoutes(r)
				if params.TeamsHandler != nil {
					r.Route("/teams", params.TeamsHandler.MountRoutes)
				}
				if params.EntriesHandler != nil {
					r.Route("/entries", params.EntriesHandler.MountRoutes)
				}
				if params.PaymentsHandler != nil {
					r.Route("/payments", params.PaymentsHandler.MountRoutes)
				}
			})
		})
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
