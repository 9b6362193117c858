package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fitleague/fitleague/internal/shared"
)

// webhookTolerance is the maximum accepted age of a signed webhook, in
// seconds.
const webhookTolerance = 300

const defaultGatewayURL = "https://api.stripe.com"

// Provider wraps the card gateway used for dues collection.
type Provider struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	clock         shared.Clock
}

// NewProvider creates a gateway provider. A nil client uses
// http.DefaultClient; a nil clock uses UTC now.
func NewProvider(secretKey, webhookSecret, baseURL string, client *http.Client, clock shared.Clock) *Provider {
	if baseURL == "" {
		baseURL = defaultGatewayURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if clock == nil {
		clock = shared.UTCClock
	}
	return &Provider{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		client:        client,
		clock:         clock,
	}
}

// CheckoutSession represents a gateway checkout session response.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent represents a parsed gateway webhook event.
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CheckoutData is the nested data.object of a checkout.session.completed
// event. ClientReferenceID carries our payment ID.
type CheckoutData struct {
	ID                string `json:"id"`
	PaymentIntent     string `json:"payment_intent"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	ClientReferenceID string `json:"client_reference_id"`
}

// CreateCheckoutSession creates a hosted checkout session for a dues payment.
func (p *Provider) CreateCheckoutSession(ctx context.Context, amountCents int64, currency, reference, successURL, cancelURL string) (*CheckoutSession, error) {
	if p.secretKey == "" {
		return nil, fmt.Errorf("gateway secret key not configured")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", "League dues")
	form.Set("line_items[0][quantity]", "1")
	form.Set("client_reference_id", reference)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, string(body))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &session, nil
}

// VerifyWebhookSignature checks the signature header against the payload and
// returns the parsed event if valid. The header format is
// t=<unix>,v1=<hexsig> with multiple v1 entries allowed during secret
// rotation.
func (p *Provider) VerifyWebhookSignature(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("gateway webhook secret not configured")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return nil, fmt.Errorf("invalid signature header format")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}
	if p.clock().Unix()-ts > webhookTolerance {
		return nil, fmt.Errorf("webhook timestamp too old")
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(timestamp + "." + string(payload)))
	expected := hex.EncodeToString(mac.Sum(nil))

	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

// ParseCheckoutData extracts the checkout object from a webhook event.
func ParseCheckoutData(data json.RawMessage) (*CheckoutData, error) {
	var wrapper struct {
		Object CheckoutData `json:"object"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse checkout data: %w", err)
	}
	return &wrapper.Object, nil
}
