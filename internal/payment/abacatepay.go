package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Billing event kinds delivered by AbacatePay. Unknown kinds must be
// accepted and ignored so new provider events never break the webhook.
const (
	EventBillingCreated   = "billing.created"
	EventBillingPaid      = "billing.paid"
	EventBillingCancelled = "billing.cancelled"
	EventBillingRefunded  = "billing.refunded"
)

// MetadataUserKey is the well-known metadata key carrying the target user.
// For billing.paid it holds the user's email; for cancellations it holds
// the user id.
const MetadataUserKey = "userId"

var (
	ErrNotConfigured    = errors.New("abacatepay: api key not configured")
	ErrMissingSecret    = errors.New("abacatepay: webhook secret not configured")
	ErrInvalidSignature = errors.New("abacatepay: invalid webhook signature")
)

// WebhookEvent is the verified payload of one webhook delivery.
type WebhookEvent struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	CreatedAt string  `json:"createdAt"`
	Billing   Billing `json:"billing"`
}

type Billing struct {
	ID       string                 `json:"id"`
	Status   string                 `json:"status"`
	Amount   int                    `json:"amount"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MetadataString returns the string value stored under key, or "".
func (b Billing) MetadataString(key string) string {
	if b.Metadata == nil {
		return ""
	}
	if v, ok := b.Metadata[key].(string); ok {
		return v
	}
	return ""
}

type CreateBillingParams struct {
	AmountCents int
	UserEmail   string
	UserID      string
	Description string
}

type CreateBillingResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Amount int    `json:"amount"`
	Status string `json:"status"`
}

// Client talks to the AbacatePay HTTP API and verifies webhook deliveries.
type Client struct {
	apiKey        string
	baseURL       string
	webhookSecret string
	frontendURL   string
	httpClient    *http.Client
}

type Config struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
	FrontendURL   string
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.abacatepay.com/v1"
	}

	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		webhookSecret: cfg.WebhookSecret,
		frontendURL:   cfg.FrontendURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateBilling opens a PIX billing for one month of the paid plan.
// The user's email travels in metadata so the webhook can resolve the
// account later.
func (c *Client) CreateBilling(ctx context.Context, params CreateBillingParams) (*CreateBillingResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body := map[string]interface{}{
		"amount":        params.AmountCents,
		"description":   params.Description,
		"methods":       []string{"PIX"},
		"frequency":     "MULTIPLE_PAYMENTS",
		"returnUrl":     c.frontendURL + "/payment/success",
		"completionUrl": c.frontendURL + "/payment/success",
		"metadata": map[string]string{
			MetadataUserKey: params.UserID,
			"userEmail":     params.UserEmail,
		},
		"products": []map[string]interface{}{
			{
				"externalId":  "plan-pro",
				"name":        "Plano PRO",
				"description": params.Description,
				"quantity":    1,
				"price":       params.AmountCents,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/billing/create", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("abacatepay: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("abacatepay: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	var parsed struct {
		Data CreateBillingResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("abacatepay: decode response: %w", err)
	}

	return &parsed.Data, nil
}

// CancelBilling cancels an open billing.
func (c *Client) CancelBilling(ctx context.Context, billingID string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/billing/"+billingID+"/cancel", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("abacatepay: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("abacatepay: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 of the raw
// payload against the shared secret and parses the event on match.
// Verification happens before the event reaches the billing processor.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, ErrMissingSecret
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("abacatepay: parse webhook payload: %w", err)
	}

	return &event, nil
}
