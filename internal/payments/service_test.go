package payments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/platform/httpx"
	"github.com/fitleague/fitleague/internal/shared"
)

type memoryPaymentRepo struct {
	payments map[uuid.UUID]Payment
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{payments: map[uuid.UUID]Payment{}}
}

func (m *memoryPaymentRepo) Insert(_ context.Context, payment Payment) (Payment, error) {
	m.payments[payment.ID] = payment
	return payment, nil
}

func (m *memoryPaymentRepo) Get(_ context.Context, id uuid.UUID) (Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return payment, nil
}

func (m *memoryPaymentRepo) SetGatewayRef(_ context.Context, id uuid.UUID, ref string) error {
	payment := m.payments[id]
	payment.GatewayRef = ref
	m.payments[id] = payment
	return nil
}

func (m *memoryPaymentRepo) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	payment, ok := m.payments[id]
	if !ok || payment.Status != StatusPending {
		return false, nil
	}
	payment.Status = StatusPaid
	payment.PaidAt = &at
	m.payments[id] = payment
	return true, nil
}

func (m *memoryPaymentRepo) MarkFailed(_ context.Context, id uuid.UUID) (bool, error) {
	payment, ok := m.payments[id]
	if !ok || payment.Status != StatusPending {
		return false, nil
	}
	payment.Status = StatusFailed
	m.payments[id] = payment
	return true, nil
}

func (m *memoryPaymentRepo) ListByLeague(_ context.Context, leagueID int64) ([]Payment, error) {
	var out []Payment
	for _, payment := range m.payments {
		if payment.LeagueID == leagueID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (m *memoryPaymentRepo) FinanceSummary(_ context.Context, leagueID int64) (FinanceSummary, error) {
	summary := FinanceSummary{LeagueID: leagueID}
	for _, payment := range m.payments {
		if payment.LeagueID != leagueID {
			continue
		}
		switch payment.Status {
		case StatusPaid:
			summary.PaidCount++
			summary.TotalPaidCents += payment.AmountCents
		case StatusPending:
			summary.PendingCount++
		case StatusFailed:
			summary.FailedCount++
		}
	}
	return summary, nil
}

type memoryIdempotency struct {
	seen map[string]struct{}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	if m.seen == nil {
		m.seen = map[string]struct{}{}
	}
	full := module + ":" + key
	if _, ok := m.seen[full]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.seen[full] = struct{}{}
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	for full := range m.seen {
		if strings.HasSuffix(full, ":"+key) {
			delete(m.seen, full)
		}
	}
	return nil
}

func newWebhookService(repo *memoryPaymentRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewProvider("sk_test", testWebhookSecret, "", nil, func() time.Time { return providerNow })
	return NewService(logger, repo, provider, &memoryIdempotency{}, func() time.Time { return providerNow }, "https://app/success", "https://app/cancel")
}

func signedEvent(t *testing.T, eventID string, paymentID uuid.UUID) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":2500,"currency":"usd","status":"complete","client_reference_id":%q}}}`,
		eventID, paymentID.String()))
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))
	return payload, header
}

func TestHandleWebhookMarksPaymentPaid(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)

	payment := Payment{ID: uuid.New(), LeagueID: 7, UserID: 100, AmountCents: 2500,
		Currency: "usd", Status: StatusPending, CreatedAt: providerNow}
	repo.payments[payment.ID] = payment

	payload, header := signedEvent(t, "evt_1", payment.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))

	settled := repo.payments[payment.ID]
	require.Equal(t, StatusPaid, settled.Status)
	require.NotNil(t, settled.PaidAt)
}

func TestHandleWebhookRedeliveryIsNoop(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)

	payment := Payment{ID: uuid.New(), LeagueID: 7, UserID: 100, AmountCents: 2500,
		Currency: "usd", Status: StatusPending, CreatedAt: providerNow}
	repo.payments[payment.ID] = payment

	payload, header := signedEvent(t, "evt_1", payment.ID)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))

	firstPaidAt := repo.payments[payment.ID].PaidAt

	// Same event ID delivered again is acknowledged without touching state.
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Equal(t, firstPaidAt, repo.payments[payment.ID].PaidAt)
}

// failOnceRepo fails the first MarkPaid so a delivery errors after its
// idempotency key was recorded.
type failOnceRepo struct {
	*memoryPaymentRepo
	failed bool
}

func (f *failOnceRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if !f.failed {
		f.failed = true
		return false, fmt.Errorf("connection reset")
	}
	return f.memoryPaymentRepo.MarkPaid(ctx, id, at)
}

func TestHandleWebhookRetryAfterFailureSettlesPayment(t *testing.T) {
	repo := &failOnceRepo{memoryPaymentRepo: newMemoryPaymentRepo()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewProvider("sk_test", testWebhookSecret, "", nil, func() time.Time { return providerNow })
	idem := &memoryIdempotency{}
	svc := NewService(logger, repo, provider, idem, func() time.Time { return providerNow }, "https://app/success", "https://app/cancel")

	payment := Payment{ID: uuid.New(), LeagueID: 7, UserID: 100, AmountCents: 2500,
		Currency: "usd", Status: StatusPending, CreatedAt: providerNow}
	repo.payments[payment.ID] = payment

	payload, header := signedEvent(t, "evt_retry", payment.ID)

	// First delivery fails mid-processing; the event key must be rolled
	// back so the gateway's retry is not swallowed.
	err := svc.HandleWebhook(context.Background(), payload, header)
	require.Error(t, err)
	require.Empty(t, idem.seen)
	require.Equal(t, StatusPending, repo.payments[payment.ID].Status)

	// The redelivered event settles the payment.
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Equal(t, StatusPaid, repo.payments[payment.ID].Status)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)

	payment := Payment{ID: uuid.New(), LeagueID: 7, UserID: 100, Status: StatusPending}
	repo.payments[payment.ID] = payment

	payload, _ := signedEvent(t, "evt_2", payment.ID)
	err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	require.Equal(t, StatusPending, repo.payments[payment.ID].Status)
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)

	payment := Payment{ID: uuid.New(), LeagueID: 7, UserID: 100, Status: StatusPending}
	repo.payments[payment.ID] = payment

	payload := []byte(fmt.Sprintf(`{"id":"evt_3","type":"charge.refunded","data":{"object":{"client_reference_id":%q}}}`, payment.ID))
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Equal(t, StatusPending, repo.payments[payment.ID].Status)
}

func TestCheckoutRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)

	_, _, err := svc.Checkout(context.Background(), CheckoutInput{LeagueID: 7, UserID: 100, AmountCents: 0, Currency: "usd"})
	var fields *httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields.Fields, "amount_cents")
}

func TestFinanceSummaryAggregates(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := newWebhookService(repo)
	paidAt := providerNow

	for id, p := range map[uuid.UUID]Payment{
		uuid.New(): {LeagueID: 7, AmountCents: 2500, Status: StatusPaid, PaidAt: &paidAt},
		uuid.New(): {LeagueID: 7, AmountCents: 2500, Status: StatusPending},
		uuid.New(): {LeagueID: 8, AmountCents: 9999, Status: StatusPaid, PaidAt: &paidAt},
	} {
		p.ID = id
		repo.payments[id] = p
	}

	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, summary.PaidCount)
	require.Equal(t, 1, summary.PendingCount)
	require.Equal(t, int64(5000), summary.TotalPaidCents)
}
