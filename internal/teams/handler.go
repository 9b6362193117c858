package teams

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
)

// Handler wires HTTP endpoints for team management. All routes are nested
// under a league scope.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a team handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers team routes under /leagues/{leagueID}/teams.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermMembersView))
		r.Get("/", h.handleList)
		r.Get("/{teamID}", h.handleGet)
		r.Get("/{teamID}/members", h.handleListMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesSubmit))
		r.Post("/", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermTeamsManage))
		r.Post("/{teamID}/members", h.handleAddMember)
		r.Delete("/{teamID}/members/{userID}", h.handleRemoveMember)
	})
}

type createTeamRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type teamResponse struct {
	ID        int64  `json:"id"`
	LeagueID  int64  `json:"league_id"`
	Name      string `json:"name"`
	CaptainID int64  `json:"captain_id"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req createTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	team, err := h.service.CreateTeam(r.Context(), leagueID, req.Name, userID)
	if err != nil {
		h.logger.Error("create team", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTeamResponse(team))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	list, err := h.service.ListTeams(r.Context(), leagueID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]teamResponse, len(list))
	for i, team := range list {
		out[i] = toTeamResponse(team)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	leagueID, teamID, err := teamParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	team, err := h.service.GetTeam(r.Context(), leagueID, teamID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTeamResponse(team))
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	leagueID, teamID, err := teamParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	members, err := h.service.ListMembers(r.Context(), leagueID, teamID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, len(members))
	for i, m := range members {
		out[i] = map[string]any{"user_id": m.UserID, "joined_at": m.JoinedAt}
	}
	httpx.JSON(w, http.StatusOK, out)
}

type rosterRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, teamID, err := teamParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req rosterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	role, _ := rbac.RoleFromContext(r.Context())
	if err := h.service.AddMember(r.Context(), userID, role, leagueID, teamID, req.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, teamID, err := teamParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	memberID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	role, _ := rbac.RoleFromContext(r.Context())
	if err := h.service.RemoveMember(r.Context(), userID, role, leagueID, teamID, memberID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func toTeamResponse(team Team) teamResponse {
	return teamResponse{ID: team.ID, LeagueID: team.LeagueID, Name: team.Name, CaptainID: team.CaptainID}
}

func leagueParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
}

func teamParams(r *http.Request) (leagueID, teamID int64, err error) {
	leagueID, err = leagueParam(r)
	if err != nil {
		return 0, 0, err
	}
	teamID, err = strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return leagueID, teamID, nil
}
