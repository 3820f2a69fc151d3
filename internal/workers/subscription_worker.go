package workers

import (
	"context"
	"time"

	"habbit_backend/internal/logger"
	"habbit_backend/internal/models"
	"habbit_backend/internal/repositories"
)

// SubscriptionWorker periodically lapses subscriptions whose paid period
// has ended. Access itself is not cut mid-period; the subscription row is
// what the rest of the system consults.
type SubscriptionWorker struct {
	subscriptionRepo repositories.SubscriptionRepository
	interval         time.Duration
}

func NewSubscriptionWorker(subscriptionRepo repositories.SubscriptionRepository) *SubscriptionWorker {
	return &SubscriptionWorker{
		subscriptionRepo: subscriptionRepo,
		interval:         time.Hour,
	}
}

// Run blocks until ctx is canceled, sweeping once per interval.
func (w *SubscriptionWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Subscription worker started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SubscriptionWorker) sweep(ctx context.Context) {
	expired, err := w.subscriptionRepo.FindExpired(time.Now())
	if err != nil {
		logger.CtxWithError(ctx, "failed to list expired subscriptions", err)
		return
	}

	for _, sub := range expired {
		err := w.subscriptionRepo.UpdateStatus(sub.UserID, models.SubscriptionStatusCanceled, nil)
		if err != nil {
			logger.CtxWithError(ctx, "failed to lapse subscription", err, "user_id", sub.UserID)
			continue
		}
		logger.CtxInfo(ctx, "subscription lapsed", "user_id", sub.UserID, "period_end", sub.CurrentPeriodEnd)
	}

	if len(expired) > 0 {
		logger.CtxInfo(ctx, "expiry sweep finished", "lapsed", len(expired))
	}
}
