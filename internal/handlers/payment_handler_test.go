package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"habbit_backend/internal/models"
	"habbit_backend/internal/payment"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services"
	"habbit_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type silentMailer struct{}

func (silentMailer) SendWelcome(to, userEmail, tempPassword string) error { return nil }

func newWebhookTestServer(t *testing.T, secret string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Subscription{}, &models.Correction{}))

	userRepo := repositories.NewUserRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	client := payment.NewClient(payment.Config{WebhookSecret: secret})
	billingService := services.NewBillingService(userRepo, subscriptionRepo, client, silentMailer{})

	base := NewBaseHandler(validator.New())
	handler := NewPaymentHandler(base, billingService, client)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, db
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhook_ValidSignatureProvisions(t *testing.T) {
	router, db := newWebhookTestServer(t, "s3cret")

	body := []byte(`{"id":"evt_1","kind":"billing.paid","billing":{"id":"bill_1","status":"PAID","amount":1990,"metadata":{"userId":"pagante@habbit.app"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/abacatepay", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, signBody("s3cret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "pagante@habbit.app").Error)
	assert.Equal(t, models.UserPlanPro, user.Plan)
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	router, db := newWebhookTestServer(t, "s3cret")

	body := []byte(`{"id":"evt_1","kind":"billing.paid","billing":{"metadata":{"userId":"atacante@habbit.app"}}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/abacatepay", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "unverified deliveries must have no effect")
}

func TestWebhook_UnknownKindAcknowledged(t *testing.T) {
	router, _ := newWebhookTestServer(t, "s3cret")

	body := []byte(`{"id":"evt_2","kind":"billing.disputed"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/abacatepay", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, signBody("s3cret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
