package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	client := NewClient(Config{WebhookSecret: "s3cret"})
	payload := []byte(`{"id":"evt_1","kind":"billing.paid","billing":{"id":"bill_1","status":"PAID","amount":1990,"metadata":{"userId":"user@habbit.app"}}}`)

	event, err := client.VerifyWebhookSignature(payload, sign("s3cret", payload))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventBillingPaid, event.Kind)
	assert.Equal(t, 1990, event.Billing.Amount)
	assert.Equal(t, "user@habbit.app", event.Billing.MetadataString(MetadataUserKey))
}

func TestVerifyWebhookSignature_WrongSignature(t *testing.T) {
	client := NewClient(Config{WebhookSecret: "s3cret"})
	payload := []byte(`{"id":"evt_1","kind":"billing.paid"}`)

	_, err := client.VerifyWebhookSignature(payload, sign("other-secret", payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = client.VerifyWebhookSignature(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	client := NewClient(Config{WebhookSecret: "s3cret"})
	payload := []byte(`{"id":"evt_1","kind":"billing.paid","billing":{"amount":1990}}`)
	signature := sign("s3cret", payload)

	tampered := []byte(`{"id":"evt_1","kind":"billing.paid","billing":{"amount":1}}`)
	_, err := client.VerifyWebhookSignature(tampered, signature)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookSignature_MissingSecret(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.VerifyWebhookSignature([]byte(`{}`), "anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestVerifyWebhookSignature_UnknownKindStillParses(t *testing.T) {
	client := NewClient(Config{WebhookSecret: "s3cret"})
	payload := []byte(`{"id":"evt_9","kind":"billing.disputed"}`)

	event, err := client.VerifyWebhookSignature(payload, sign("s3cret", payload))
	require.NoError(t, err)
	assert.Equal(t, "billing.disputed", event.Kind)
}

func TestMetadataString(t *testing.T) {
	b := Billing{Metadata: map[string]interface{}{"userId": "abc", "amount": 12}}

	assert.Equal(t, "abc", b.MetadataString("userId"))
	assert.Equal(t, "", b.MetadataString("amount"), "non-string values read as empty")
	assert.Equal(t, "", b.MetadataString("missing"))
	assert.Equal(t, "", Billing{}.MetadataString("userId"))
}
