package services

import (
	"habbit_backend/internal/models"
	"habbit_backend/internal/repositories"

	"habbit_backend/pkg/apperrors"
)

// MonthlyUsage is the quota meter's answer for one user and plan.
type MonthlyUsage struct {
	Count  int64
	Tokens int64
	Limit  int
}

// Exceeded reports whether another correction would pass the plan ceiling.
func (u MonthlyUsage) Exceeded() bool {
	return u.Count >= int64(u.Limit)
}

// QuotaService derives current-period usage from the correction ledger.
// It has no state of its own: the returned figures are consistent by
// construction but only as fresh as the last committed ledger row, so two
// concurrent requests from the same user can observe the same count.
type QuotaService interface {
	MonthlyUsage(userID string, plan models.UserPlan) (*MonthlyUsage, error)
}

type QuotaServiceImpl struct {
	correctionRepo repositories.CorrectionRepository
}

func NewQuotaService(correctionRepo repositories.CorrectionRepository) QuotaService {
	return &QuotaServiceImpl{correctionRepo: correctionRepo}
}

func (s *QuotaServiceImpl) MonthlyUsage(userID string, plan models.UserPlan) (*MonthlyUsage, error) {
	count, err := s.correctionRepo.CountByUserInCurrentMonth(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tokens, err := s.correctionRepo.SumTokensByUserInCurrentMonth(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &MonthlyUsage{
		Count:  count,
		Tokens: tokens,
		Limit:  models.GetPlanConfig(plan).MonthlyLimit,
	}, nil
}
