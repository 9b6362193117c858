package entries

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
)

// Handler wires HTTP endpoints for the submission lifecycle. All routes are
// nested under a league scope.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs an entries handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers entry routes under /leagues/{leagueID}/entries.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesSubmit))
		r.Post("/", h.handleSubmit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesViewOwn))
		r.Get("/mine", h.handleListOwn)
		r.Get("/mine/rejected-summary", h.handleRejectedSummary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesViewTeam, rbac.PermEntriesViewAny))
		r.Get("/", h.handleList)
		r.Get("/{entryID}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesValidateTeam, rbac.PermEntriesValidateAny))
		r.Post("/{entryID}/review", h.handleReview)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermEntriesOverride))
		r.Post("/{entryID}/override", h.handleOverride)
	})
}

const timeLayout = time.RFC3339

type submitRequest struct {
	TeamID     int64   `json:"team_id" validate:"required,gt=0"`
	ActivityID int64   `json:"activity_id" validate:"required,gt=0"`
	Value      float64 `json:"value" validate:"required,gt=0"`
	Note       string  `json:"note" validate:"max=500"`
}

type entryResponse struct {
	ID         uuid.UUID `json:"id"`
	LeagueID   int64     `json:"league_id"`
	TeamID     int64     `json:"team_id"`
	UserID     int64     `json:"user_id"`
	ActivityID int64     `json:"activity_id"`
	Value      float64   `json:"value"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	ReviewNote string    `json:"review_note,omitempty"`
	ReviewedBy *int64    `json:"reviewed_by,omitempty"`
	ReviewedAt *string   `json:"reviewed_at,omitempty"`
	CreatedAt  string    `json:"created_at"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	entry, err := h.service.Submit(r.Context(), SubmitInput{
		LeagueID:   leagueID,
		TeamID:     req.TeamID,
		ActivityID: req.ActivityID,
		UserID:     userID,
		Value:      req.Value,
		Note:       req.Note,
	})
	if err != nil {
		h.logger.Error("submit entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, pagination, err := h.service.ListByLeague(r.Context(), leagueID, Status(r.URL.Query().Get("status")), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    toEntryResponses(list),
		"pagination": pagination,
	})
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	list, err := h.service.ListOwn(r.Context(), leagueID, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponses(list))
}

func (h *Handler) handleRejectedSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := leagueParam(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	summary, err := h.service.RejectedSummaryFor(r.Context(), leagueID, userID)
	if err != nil {
		h.logger.Error("rejected summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	leagueID, entryID, err := entryParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	entry, err := h.service.Get(r.Context(), leagueID, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note" validate:"max=500"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Review)
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Override)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, apply func(context.Context, ReviewInput) (Entry, error)) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, entryID, err := entryParams(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	role, _ := rbac.RoleFromContext(r.Context())
	entry, err := apply(r.Context(), ReviewInput{
		LeagueID:  leagueID,
		EntryID:   entryID,
		ActorID:   userID,
		ActorRole: role,
		Approve:   req.Decision == "approve",
		Note:      req.Note,
	})
	if err != nil {
		h.logger.Error("review entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func toEntryResponses(list []Entry) []entryResponse {
	out := make([]entryResponse, len(list))
	for i, entry := range list {
		out[i] = toEntryResponse(entry)
	}
	return out
}

func toEntryResponse(entry Entry) entryResponse {
	resp := entryResponse{
		ID:         entry.ID,
		LeagueID:   entry.LeagueID,
		TeamID:     entry.TeamID,
		UserID:     entry.UserID,
		ActivityID: entry.ActivityID,
		Value:      entry.Value,
		Status:     entry.Status,
		Note:       entry.Note,
		ReviewNote: entry.ReviewNote,
		ReviewedBy: entry.ReviewedBy,
		CreatedAt:  entry.CreatedAt.Format(timeLayout),
	}
	if entry.ReviewedAt != nil {
		at := entry.ReviewedAt.Format(timeLayout)
		resp.ReviewedAt = &at
	}
	return resp
}

func leagueParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
}

func entryParams(r *http.Request) (int64, uuid.UUID, error) {
	leagueID, err := leagueParam(r)
	if err != nil {
		return 0, uuid.Nil, err
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		return 0, uuid.Nil, err
	}
	return leagueID, entryID, nil
}
