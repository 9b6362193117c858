package leagues

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

// Handler wires HTTP endpoints for league configuration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a league handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers collection-level league routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
}

// MountLeagueRoutes registers routes scoped to a single league. The router
// must carry a {leagueID} URL parameter; sibling modules (teams, entries,
// payments) mount next to these on the same subtree.
func (h *Handler) MountLeagueRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermMembersView))
		r.Get("/", h.handleGet)
		r.Get("/activities", h.handleListActivities)
		r.Get("/activities/{activityID}/thresholds", h.handleResolveThreshold)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermActivityConfigure))
		r.Post("/activities", h.handleConfigureActivity)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermGovernorAssign))
		r.Post("/governors", h.handleAssignGovernor)
	})
	// Joining needs a session but no existing league affiliation.
	r.Post("/join", h.handleJoin)
}

type createLeagueRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=120"`
	Season string `json:"season" validate:"max=40"`
}

type leagueResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Season string `json:"season"`
	HostID int64  `json:"host_id"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createLeagueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	league, err := h.service.CreateLeague(r.Context(), CreateLeagueInput{Name: req.Name, Season: req.Season, HostID: userID})
	if err != nil {
		h.logger.Error("create league", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLeagueResponse(league))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.CurrentUserID(r); !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	list, err := h.service.ListLeagues(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]leagueResponse, len(list))
	for i, league := range list {
		out[i] = toLeagueResponse(league)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.JoinLeague(r.Context(), leagueID, userID); err != nil {
		h.logger.Error("join league", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	league, err := h.service.GetLeague(r.Context(), leagueID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLeagueResponse(league))
}

type thresholdPayload struct {
	Min *float64 `json:"min" validate:"omitempty,gte=0"`
	Max *float64 `json:"max" validate:"omitempty,gte=0"`
}

type configureActivityRequest struct {
	Name    string            `json:"name" validate:"required,min=2,max=120"`
	Unit    string            `json:"unit" validate:"max=40"`
	Base    thresholdPayload  `json:"base"`
	Below40 *thresholdPayload `json:"below40"`
	Above60 *thresholdPayload `json:"above60"`
}

func (h *Handler) handleConfigureActivity(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req configureActivityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	activity, err := h.service.ConfigureActivity(r.Context(), ConfigureActivityInput{
		LeagueID: leagueID,
		Name:     req.Name,
		Unit:     req.Unit,
		Base:     Threshold{Min: req.Base.Min, Max: req.Base.Max},
		Below40:  toThreshold(req.Below40),
		Above60:  toThreshold(req.Above60),
		ActorID:  userID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activityView(activity))
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	list, err := h.service.ListActivities(r.Context(), leagueID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, len(list))
	for i, activity := range list {
		out[i] = activityView(activity)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleResolveThreshold(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	activityID, err := strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	age, err := strconv.ParseFloat(r.URL.Query().Get("age"), 64)
	if err != nil {
		httpx.RespondError(w, httpx.NewFieldErrors(map[string]string{"age": "must be a number"}))
		return
	}
	resolved, err := h.service.ResolveThreshold(r.Context(), leagueID, activityID, age)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ratioMin, ratioMax := RatioRange()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"threshold":   resolved,
		"ratio_range": map[string]float64{"min": ratioMin, "max": ratioMax},
	})
}

type assignGovernorRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) handleAssignGovernor(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req assignGovernorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	if err := h.service.AssignGovernor(r.Context(), leagueID, req.UserID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func toLeagueResponse(league League) leagueResponse {
	return leagueResponse{ID: league.ID, Name: league.Name, Season: league.Season, HostID: league.HostID}
}

func activityView(activity Activity) map[string]any {
	view := map[string]any{
		"id":        activity.ID,
		"league_id": activity.LeagueID,
		"name":      activity.Name,
		"unit":      activity.Unit,
		"base":      thresholdView(activity.Base),
	}
	if activity.Below40 != nil {
		view["below40"] = thresholdView(*activity.Below40)
	}
	if activity.Above60 != nil {
		view["above60"] = thresholdView(*activity.Above60)
	}
	return view
}

func thresholdView(t Threshold) map[string]any {
	return map[string]any{"min": t.Min, "max": t.Max}
}

func toThreshold(p *thresholdPayload) *Threshold {
	if p == nil {
		return nil
	}
	return &Threshold{Min: p.Min, Max: p.Max}
}

func leagueParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
}

