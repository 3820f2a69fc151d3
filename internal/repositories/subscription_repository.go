package repositories

import (
	"errors"
	"time"

	"habbit_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepository is the entitlement store's write/read surface.
// It carries no business rules; transitions are decided by the billing
// event processor.
type SubscriptionRepository interface {
	FindByUserID(userID string) (*models.Subscription, error)
	Upsert(sub *models.Subscription) error
	UpdateStatus(userID string, status models.SubscriptionStatus, cancelAtPeriodEnd *bool) error
	FindExpired(now time.Time) ([]models.Subscription, error)
}

type SubscriptionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

func (r *SubscriptionRepositoryImpl) FindByUserID(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert creates or replaces the single subscription row for sub.UserID.
// Keyed by user id, so exact redelivery of a billing event is idempotent.
func (r *SubscriptionRepositoryImpl) Upsert(sub *models.Subscription) error {
	existing, err := r.FindByUserID(sub.UserID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return r.db.Create(sub).Error
		}
		return err
	}

	return r.db.Model(&models.Subscription{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"plan":                 sub.Plan,
		"status":               sub.Status,
		"current_period_end":   sub.CurrentPeriodEnd,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"updated_at":           time.Now(),
	}).Error
}

// UpdateStatus mutates status (and optionally cancelAtPeriodEnd) for the
// user's subscription. Missing row is reported via ErrSubscriptionNotFound;
// callers decide whether that is an error.
func (r *SubscriptionRepositoryImpl) UpdateStatus(userID string, status models.SubscriptionStatus, cancelAtPeriodEnd *bool) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if cancelAtPeriodEnd != nil {
		updates["cancel_at_period_end"] = *cancelAtPeriodEnd
	}

	result := r.db.Model(&models.Subscription{}).Where("user_id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) FindExpired(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("status = ? AND current_period_end < ?", models.SubscriptionStatusActive, now).
		Find(&subs).Error
	return subs, err
}
