package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
)

// idempotencyModule namespaces webhook event IDs in idempotency_keys.
const idempotencyModule = "payments"

// checkoutCompleted is the gateway event type confirming a paid session.
const checkoutCompleted = "checkout.session.completed"

// ErrPaymentNotFound wraps the not-found sentinel for handler mapping.
var ErrPaymentNotFound = fmt.Errorf("%w: payment", httpx.ErrNotFound)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, payment Payment) (Payment, error)
	Get(ctx context.Context, id uuid.UUID) (Payment, error)
	SetGatewayRef(ctx context.Context, id uuid.UUID, ref string) error
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
	ListByLeague(ctx context.Context, leagueID int64) ([]Payment, error)
	FinanceSummary(ctx context.Context, leagueID int64) (FinanceSummary, error)
}

// IdempotencyPort guards against webhook redelivery. Delete rolls a key back
// when processing fails after the insert, so the gateway's retry is not
// swallowed as already-processed.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service orchestrates dues collection.
type Service struct {
	logger      *slog.Logger
	repo        RepositoryPort
	provider    *Provider
	idempotency IdempotencyPort
	clock       shared.Clock
	successURL  string
	cancelURL   string
}

// NewService constructs a payments service.
func NewService(logger *slog.Logger, repo RepositoryPort, provider *Provider, idempotency IdempotencyPort, clock shared.Clock, successURL, cancelURL string) *Service {
	if clock == nil {
		clock = shared.UTCClock
	}
	return &Service{
		logger:      logger,
		repo:        repo,
		provider:    provider,
		idempotency: idempotency,
		clock:       clock,
		successURL:  successURL,
		cancelURL:   cancelURL,
	}
}

// CheckoutInput starts a dues payment for a league member.
type CheckoutInput struct {
	LeagueID    int64
	UserID      int64
	AmountCents int64
	Currency    string
}

// Checkout records a pending payment and opens a hosted checkout session. The
// payment ID rides along as the gateway client reference so the webhook can
// correlate back.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Payment, string, error) {
	if input.AmountCents <= 0 {
		return Payment{}, "", httpx.NewFieldErrors(map[string]string{"amount_cents": "must be positive"})
	}
	payment := Payment{
		ID:          uuid.New(),
		LeagueID:    input.LeagueID,
		UserID:      input.UserID,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		Status:      StatusPending,
		CreatedAt:   s.clock(),
	}
	payment, err := s.repo.Insert(ctx, payment)
	if err != nil {
		return Payment{}, "", err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.AmountCents, payment.Currency, payment.ID.String(), s.successURL, s.cancelURL)
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, payment.ID); markErr != nil {
			s.logger.Error("mark payment failed", slog.Any("error", markErr))
		}
		return Payment{}, "", err
	}
	if err := s.repo.SetGatewayRef(ctx, payment.ID, session.ID); err != nil {
		s.logger.Error("set gateway ref", slog.Any("error", err))
	}
	return payment, session.URL, nil
}

// HandleWebhook verifies and applies one gateway notification. Redelivered
// events are acknowledged without reprocessing.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("%w: %s", httpx.ErrUnauthorized, err)
	}

	if err := s.idempotency.CheckAndInsert(ctx, event.ID, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.logger.Info("webhook event already processed", slog.String("event_id", event.ID))
			return nil
		}
		return err
	}

	// The key is now recorded; any failure past this point must roll it back
	// or the gateway's redelivery would be acknowledged without the payment
	// ever settling.
	if err := s.applyWebhookEvent(ctx, *event); err != nil {
		if delErr := s.idempotency.Delete(ctx, event.ID); delErr != nil {
			s.logger.Error("roll back webhook idempotency key",
				slog.String("event_id", event.ID), slog.Any("error", delErr))
		}
		return err
	}
	return nil
}

func (s *Service) applyWebhookEvent(ctx context.Context, event WebhookEvent) error {
	if event.Type != checkoutCompleted {
		s.logger.Info("ignoring webhook event", slog.String("type", event.Type))
		return nil
	}

	data, err := ParseCheckoutData(event.Data)
	if err != nil {
		return err
	}
	paymentID, err := uuid.Parse(data.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("webhook client reference: %w", err)
	}

	updated, err := s.repo.MarkPaid(ctx, paymentID, s.clock())
	if err != nil {
		return err
	}
	if !updated {
		s.logger.Warn("webhook for unknown or settled payment", slog.String("payment_id", paymentID.String()))
	}
	return nil
}

// Get fetches a payment scoped to its league.
func (s *Service) Get(ctx context.Context, leagueID int64, id uuid.UUID) (Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.LeagueID != leagueID {
		return Payment{}, ErrPaymentNotFound
	}
	return payment, nil
}

// ListByLeague returns all dues payments in a league.
func (s *Service) ListByLeague(ctx context.Context, leagueID int64) ([]Payment, error) {
	return s.repo.ListByLeague(ctx, leagueID)
}

// Summary aggregates league dues collection for the finance dashboard.
func (s *Service) Summary(ctx context.Context, leagueID int64) (FinanceSummary, error) {
	return s.repo.FinanceSummary(ctx, leagueID)
}
