package payments

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/rbac"
	"github.com/fitleague/fitleague/internal/shared"
)

// signatureHeader carries the gateway webhook signature.
const signatureHeader = "Gateway-Signature"

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// Handler wires HTTP endpoints for dues collection.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a payments handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers league-scoped payment routes under
// /leagues/{leagueID}/payments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermDuesPay))
		r.Post("/checkout", h.handleCheckout)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermFinanceView))
		r.Get("/", h.handleList)
		r.Get("/summary", h.handleSummary)
	})
}

// MountWebhook registers the unauthenticated gateway callback. It lives
// outside the session/CSRF stack because the gateway signs its own requests.
func (h *Handler) MountWebhook(r chi.Router) {
	r.Post("/webhooks/payments", h.handleWebhook)
}

type checkoutRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3,alpha"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r)
	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	payment, checkoutURL, err := h.service.Checkout(r.Context(), CheckoutInput{
		LeagueID:    leagueID,
		UserID:      userID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	})
	if err != nil {
		h.logger.Error("checkout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"payment_id":   payment.ID,
		"checkout_url": checkoutURL,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	list, err := h.service.ListByLeague(r.Context(), leagueID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, len(list))
	for i, payment := range list {
		out[i] = map[string]any{
			"id":           payment.ID,
			"user_id":      payment.UserID,
			"amount_cents": payment.AmountCents,
			"currency":     payment.Currency,
			"status":       payment.Status,
			"paid_at":      payment.PaidAt,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	leagueID, err := strconv.ParseInt(chi.URLParam(r, "leagueID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	summary, err := h.service.Summary(r.Context(), leagueID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		h.logger.Error("payment webhook", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "received"})
}
