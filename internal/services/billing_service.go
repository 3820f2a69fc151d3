package services

import (
	"context"
	"strings"
	"time"

	"habbit_backend/internal/auth"
	"habbit_backend/internal/email"
	"habbit_backend/internal/logger"
	"habbit_backend/internal/models"
	"habbit_backend/internal/payment"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"
)

// BillingService turns verified payment-provider events into entitlement
// state and opens new billings. Signature verification happens in the
// handler layer; everything arriving here is trusted.
type BillingService interface {
	HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error
	CreateBilling(ctx context.Context, userID string) (*dto.CreateBillingResponse, error)
	CreateBillingPublic(ctx context.Context, req *dto.CreateBillingPublicRequest) (*dto.CreateBillingResponse, error)
}

type BillingServiceImpl struct {
	userRepo         repositories.UserRepository
	subscriptionRepo repositories.SubscriptionRepository
	paymentClient    *payment.Client
	mailer           email.Mailer
}

func NewBillingService(
	userRepo repositories.UserRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	paymentClient *payment.Client,
	mailer email.Mailer,
) BillingService {
	return &BillingServiceImpl{
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
		paymentClient:    paymentClient,
		mailer:           mailer,
	}
}

// HandleWebhookEvent dispatches one verified event. Unknown kinds are
// acknowledged and ignored so the provider never retries them.
func (s *BillingServiceImpl) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	switch event.Kind {
	case payment.EventBillingPaid:
		return s.handlePaid(ctx, event)
	case payment.EventBillingCancelled:
		return s.handleCancelled(ctx, event)
	case payment.EventBillingRefunded:
		return s.handleRefunded(ctx, event)
	case payment.EventBillingCreated:
		logger.CtxInfo(ctx, "billing created", "event_id", event.ID, "billing_id", event.Billing.ID)
		return nil
	default:
		logger.CtxInfo(ctx, "ignoring unknown webhook kind", "kind", event.Kind, "event_id", event.ID)
		return nil
	}
}

// handlePaid provisions the account (if needed) and activates one month of
// PRO. The whole flow is idempotent keyed on the user's email: redelivery
// finds the user already present and only refreshes the subscription.
func (s *BillingServiceImpl) handlePaid(ctx context.Context, event *payment.WebhookEvent) error {
	userEmail := event.Billing.MetadataString(payment.MetadataUserKey)
	if userEmail == "" {
		logger.CtxWarn(ctx, "paid event without user metadata", "event_id", event.ID, "billing_id", event.Billing.ID)
		return nil
	}

	user, created, tempPassword, err := s.findOrProvisionUser(ctx, userEmail)
	if err != nil {
		return err
	}

	now := time.Now()
	sub := &models.Subscription{
		UserID:            user.ID,
		Plan:              models.UserPlanPro,
		Status:            models.SubscriptionStatusActive,
		CurrentPeriodEnd:  now.AddDate(0, 1, 0),
		CancelAtPeriodEnd: false,
	}
	if err := s.subscriptionRepo.Upsert(sub); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "subscription activated",
		"user_id", user.ID, "event_id", event.ID, "provisioned", created)

	// Welcome mail goes out once, on first provisioning. Delivery failure
	// must not fail the webhook: the entitlement is already committed.
	if created {
		if err := s.mailer.SendWelcome(user.Email, user.Email, tempPassword); err != nil {
			logger.CtxWithError(ctx, "failed to send welcome email", err, "user_id", user.ID)
		}
	}

	return nil
}

func (s *BillingServiceImpl) findOrProvisionUser(ctx context.Context, userEmail string) (*models.User, bool, string, error) {
	user, err := s.userRepo.FindByEmail(userEmail)
	if err == nil {
		return user, false, "", nil
	}
	if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, "", apperrors.InternalError(err)
	}

	tempPassword, err := auth.GenerateRandomPassword()
	if err != nil {
		return nil, false, "", apperrors.InternalError(err)
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return nil, false, "", apperrors.InternalError(err)
	}

	user = &models.User{
		Email:           userEmail,
		PasswordHash:    hash,
		Plan:            models.UserPlanPro,
		Role:            models.UserRoleUser,
		CorrectionStyle: string(models.CorrectionStyleCorrect),
	}
	if err := s.userRepo.Create(user); err != nil {
		// Lost a race with a concurrent delivery of the same event; the
		// row exists now, use it.
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			existing, ferr := s.userRepo.FindByEmail(userEmail)
			if ferr != nil {
				return nil, false, "", apperrors.InternalError(ferr)
			}
			return existing, false, "", nil
		}
		return nil, false, "", apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "provisioned user from payment", "user_id", user.ID)
	return user, true, tempPassword, nil
}

// handleCancelled marks the subscription canceled and flags it to lapse at
// period end. A cancellation for a user with no subscription row is a
// no-op, not an error.
func (s *BillingServiceImpl) handleCancelled(ctx context.Context, event *payment.WebhookEvent) error {
	userID, ok := s.resolveUserID(ctx, event)
	if !ok {
		return nil
	}

	cancelAtPeriodEnd := true
	err := s.subscriptionRepo.UpdateStatus(userID, models.SubscriptionStatusCanceled, &cancelAtPeriodEnd)
	if err != nil && !apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "subscription cancelled", "user_id", userID, "event_id", event.ID)
	return nil
}

// handleRefunded revokes the entitlement immediately. Unlike cancellation
// it leaves cancelAtPeriodEnd untouched.
func (s *BillingServiceImpl) handleRefunded(ctx context.Context, event *payment.WebhookEvent) error {
	userID, ok := s.resolveUserID(ctx, event)
	if !ok {
		return nil
	}

	err := s.subscriptionRepo.UpdateStatus(userID, models.SubscriptionStatusCanceled, nil)
	if err != nil && !apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "subscription refunded", "user_id", userID, "event_id", event.ID)
	return nil
}

// resolveUserID extracts the target user from event metadata. The key holds
// either a user id or an email depending on how the billing was opened.
func (s *BillingServiceImpl) resolveUserID(ctx context.Context, event *payment.WebhookEvent) (string, bool) {
	value := event.Billing.MetadataString(payment.MetadataUserKey)
	if value == "" {
		logger.CtxWarn(ctx, "event without user metadata", "kind", event.Kind, "event_id", event.ID)
		return "", false
	}

	if !strings.Contains(value, "@") {
		return value, true
	}

	user, err := s.userRepo.FindByEmail(value)
	if err != nil {
		logger.CtxWarn(ctx, "event for unknown user", "kind", event.Kind, "event_id", event.ID)
		return "", false
	}
	return user.ID, true
}

// CreateBilling opens a billing for an authenticated user.
func (s *BillingServiceImpl) CreateBilling(ctx context.Context, userID string) (*dto.CreateBillingResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	plan := models.GetPlanConfig(models.UserPlanPro)
	billing, err := s.paymentClient.CreateBilling(ctx, payment.CreateBillingParams{
		AmountCents: plan.PriceCents,
		UserEmail:   user.Email,
		UserID:      user.Email,
		Description: "Assinatura " + plan.DisplayName + " - 1 mês",
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to create billing", err, "user_id", userID)
		return nil, apperrors.ErrPaymentProviderError
	}

	return &dto.CreateBillingResponse{BillingID: billing.ID, URL: billing.URL}, nil
}

// CreateBillingPublic opens a billing for a visitor who may not have an
// account yet. The email rides in metadata so the paid event can provision
// the account later.
func (s *BillingServiceImpl) CreateBillingPublic(ctx context.Context, req *dto.CreateBillingPublicRequest) (*dto.CreateBillingResponse, error) {
	plan := models.GetPlanConfig(models.UserPlanPro)
	billing, err := s.paymentClient.CreateBilling(ctx, payment.CreateBillingParams{
		AmountCents: plan.PriceCents,
		UserEmail:   req.Email,
		UserID:      req.Email,
		Description: "Assinatura " + plan.DisplayName + " - 1 mês",
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to create public billing", err)
		return nil, apperrors.ErrPaymentProviderError
	}

	return &dto.CreateBillingResponse{BillingID: billing.ID, URL: billing.URL}, nil
}
