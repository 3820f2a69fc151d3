package handlers

import (
	"errors"
	"io"
	"net/http"

	"habbit_backend/internal/logger"
	"habbit_backend/internal/middleware"
	"habbit_backend/internal/payment"
	"habbit_backend/internal/services"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Abacatepay-Signature"

type PaymentHandler struct {
	*BaseHandler
	billingService services.BillingService
	paymentClient  *payment.Client
}

func NewPaymentHandler(base *BaseHandler, billingService services.BillingService, paymentClient *payment.Client) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		billingService: billingService,
		paymentClient:  paymentClient,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	billing := r.Group("/billing")
	{
		billing.POST("", middleware.AuthMiddleware(), h.CreateBilling)
		billing.POST("/public", h.CreateBillingPublic)
	}

	// External callback, authenticated by signature instead of a token.
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/abacatepay", h.HandleWebhook)
	}
}

// HandleWebhook verifies the delivery signature over the raw body and hands
// the event to the billing processor. Events the processor chooses to
// ignore are still acknowledged with 200 so the provider stops retrying.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read request body"))
		return
	}

	event, err := h.paymentClient.VerifyWebhookSignature(payload, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrMissingSecret) {
			logger.CtxWarn(ctx, "rejected webhook delivery", "reason", err.Error(), "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.ErrInvalidWebhookSignature)
			return
		}
		apperrors.HandleError(c, apperrors.NewBadRequestError("Malformed webhook payload"))
		return
	}

	if err := h.billingService.HandleWebhookEvent(ctx, event); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentHandler) CreateBilling(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.billingService.CreateBilling(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PaymentHandler) CreateBillingPublic(c *gin.Context) {
	var req dto.CreateBillingPublicRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.billingService.CreateBillingPublic(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
