package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

var providerNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestProvider() *Provider {
	return NewProvider("sk_test", testWebhookSecret, "", nil, func() time.Time { return providerNow })
}

func signPayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignatureValid(t *testing.T) {
	provider := newTestProvider()
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"client_reference_id":"ref"}}}`)
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	event, err := provider.VerifyWebhookSignature(payload, header)
	require.NoError(t, err)
	require.Equal(t, "evt_1", event.ID)
	require.Equal(t, "checkout.session.completed", event.Type)
}

func TestVerifyWebhookSignatureRotatedSecret(t *testing.T) {
	provider := newTestProvider()
	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed"}`)
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts,
		signPayload("whsec_old", ts, payload),
		signPayload(testWebhookSecret, ts, payload))

	event, err := provider.VerifyWebhookSignature(payload, header)
	require.NoError(t, err)
	require.Equal(t, "evt_2", event.ID)
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	provider := newTestProvider()
	payload := []byte(`{"id":"evt_3"}`)
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload("whsec_other", ts, payload))

	_, err := provider.VerifyWebhookSignature(payload, header)
	require.ErrorContains(t, err, "invalid webhook signature")
}

func TestVerifyWebhookSignatureStaleTimestamp(t *testing.T) {
	provider := newTestProvider()
	payload := []byte(`{"id":"evt_4"}`)
	ts := providerNow.Add(-6 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	_, err := provider.VerifyWebhookSignature(payload, header)
	require.ErrorContains(t, err, "timestamp too old")
}

func TestVerifyWebhookSignatureMalformedHeader(t *testing.T) {
	provider := newTestProvider()

	for _, header := range []string{"", "t=123", "v1=deadbeef", "garbage"} {
		_, err := provider.VerifyWebhookSignature([]byte(`{}`), header)
		require.Error(t, err, "header %q", header)
	}
}

func TestVerifyWebhookSignatureTamperedPayload(t *testing.T) {
	provider := newTestProvider()
	payload := []byte(`{"id":"evt_5","type":"checkout.session.completed"}`)
	ts := providerNow.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	tampered := []byte(`{"id":"evt_5","type":"checkout.session.expired"}`)
	_, err := provider.VerifyWebhookSignature(tampered, header)
	require.ErrorContains(t, err, "invalid webhook signature")
}

func TestParseCheckoutData(t *testing.T) {
	raw := []byte(`{"object":{"id":"cs_1","payment_intent":"pi_1","amount_total":2500,"currency":"usd","status":"complete","client_reference_id":"abc"}}`)
	data, err := ParseCheckoutData(raw)
	require.NoError(t, err)
	require.Equal(t, int64(2500), data.AmountTotal)
	require.Equal(t, "abc", data.ClientReferenceID)
}
