package services

import (
	"context"
	"encoding/json"
	"strings"

	"habbit_backend/internal/ai"
	"habbit_backend/internal/logger"
	"habbit_backend/internal/models"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// CorrectionService orchestrates correction requests: it gates on the quota
// meter, delegates to the correction engine and appends the result to the
// ledger.
//
// The quota check and the ledger write are not one atomic transaction.
// Concurrent requests from the same user can each observe a pre-increment
// count below the limit and all proceed, so effective usage may exceed the
// nominal limit by up to the concurrency degree minus one. Accepted
// tradeoff for low-friction metering.
type CorrectionService interface {
	CorrectText(ctx context.Context, userID string, req *dto.CorrectTextRequest) (*dto.CorrectTextResponse, error)
	CorrectTextStream(ctx context.Context, userID string, req *dto.CorrectTextRequest) (<-chan ai.StreamChunk, error)
	GetCorrection(userID, correctionID string) (*models.Correction, error)
	ListUserCorrections(userID string, page, perPage int) ([]models.Correction, error)
	DeleteCorrection(userID, correctionID string) error
	GetUserStats(userID string) (*dto.UserStatsResponse, error)
}

type CorrectionServiceImpl struct {
	correctionRepo repositories.CorrectionRepository
	userRepo       repositories.UserRepository
	quotaService   QuotaService
	aiProvider     ai.Provider
}

func NewCorrectionService(
	correctionRepo repositories.CorrectionRepository,
	userRepo repositories.UserRepository,
	quotaService QuotaService,
	aiProvider ai.Provider,
) CorrectionService {
	return &CorrectionServiceImpl{
		correctionRepo: correctionRepo,
		userRepo:       userRepo,
		quotaService:   quotaService,
		aiProvider:     aiProvider,
	}
}

// gate checks user existence and the monthly quota. It runs before any
// engine call in both execution modes.
func (s *CorrectionServiceImpl) gate(userID string) (*models.User, *MonthlyUsage, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, apperrors.ErrResourceNotFound
		}
		return nil, nil, apperrors.InternalError(err)
	}

	usage, err := s.quotaService.MonthlyUsage(userID, user.Plan)
	if err != nil {
		return nil, nil, err
	}

	if usage.Exceeded() {
		return nil, nil, apperrors.ErrMonthlyLimitExceeded
	}

	return user, usage, nil
}

func (s *CorrectionServiceImpl) CorrectText(ctx context.Context, userID string, req *dto.CorrectTextRequest) (*dto.CorrectTextResponse, error) {
	user, usage, err := s.gate(userID)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "pt"
	}

	result, err := s.aiProvider.CorrectText(ctx, req.Text, language, user.CorrectionStyle)
	if err != nil {
		// No ledger row is written, so a retry is not double-charged.
		logger.CtxWithError(ctx, "correction engine call failed", err, "user_id", userID)
		return nil, apperrors.ErrCorrectionEngineError
	}

	correction := &models.Correction{
		UserID:        userID,
		OriginalText:  req.Text,
		CorrectedText: result.CorrectedText,
		Language:      language,
		TokensUsed:    result.TokensUsed,
	}

	if len(result.Changes) > 0 {
		changesJSON, err := json.Marshal(result.Changes)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		correction.Changes = datatypes.JSON(changesJSON)
	}

	if err := s.correctionRepo.Create(correction); err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Advisory figure: computed from the pre-call count, not re-queried.
	return &dto.CorrectTextResponse{
		Correction:   correction,
		MonthlyUsage: usage.Count + 1,
		MonthlyLimit: usage.Limit,
	}, nil
}

// CorrectTextStream gates exactly like CorrectText, then returns the lazily
// produced fragment sequence. Once the engine's output ends normally the
// assembled correction is persisted here; an engine failure or consumer
// cancellation writes nothing.
func (s *CorrectionServiceImpl) CorrectTextStream(ctx context.Context, userID string, req *dto.CorrectTextRequest) (<-chan ai.StreamChunk, error) {
	user, _, err := s.gate(userID)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = "pt"
	}

	stream, err := s.aiProvider.CorrectTextStream(ctx, req.Text, language, user.CorrectionStyle)
	if err != nil {
		logger.CtxWithError(ctx, "correction engine stream failed to start", err, "user_id", userID)
		return nil, apperrors.ErrCorrectionEngineError
	}

	out := make(chan ai.StreamChunk)

	go func() {
		defer close(out)

		var assembled strings.Builder
		failed := false

		for chunk := range stream {
			if chunk.Err != nil {
				failed = true
			} else {
				assembled.WriteString(chunk.Content)
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}

		if failed || ctx.Err() != nil || assembled.Len() == 0 {
			return
		}

		// The streaming engine reports no token usage; the ledger row still
		// counts toward the monthly quota.
		correction := &models.Correction{
			UserID:        userID,
			OriginalText:  req.Text,
			CorrectedText: assembled.String(),
			Language:      language,
		}
		if err := s.correctionRepo.Create(correction); err != nil {
			logger.CtxWithError(ctx, "failed to persist streamed correction", err, "user_id", userID)
		}
	}()

	return out, nil
}

func (s *CorrectionServiceImpl) GetCorrection(userID, correctionID string) (*models.Correction, error) {
	correction, err := s.correctionRepo.FindByID(correctionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrCorrectionNotFound) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if correction.UserID != userID {
		return nil, apperrors.ErrNotAllowed
	}

	return correction, nil
}

func (s *CorrectionServiceImpl) ListUserCorrections(userID string, page, perPage int) ([]models.Correction, error) {
	corrections, err := s.correctionRepo.FindManyByUserID(userID, page, perPage)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return corrections, nil
}

func (s *CorrectionServiceImpl) DeleteCorrection(userID, correctionID string) error {
	correction, err := s.correctionRepo.FindByID(correctionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrCorrectionNotFound) {
			return apperrors.ErrResourceNotFound
		}
		return apperrors.InternalError(err)
	}

	if correction.UserID != userID {
		return apperrors.ErrNotAllowed
	}

	if err := s.correctionRepo.Delete(correctionID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// GetUserStats answers the quota query surface. Unknown users get
// zero-usage figures with the default plan limit instead of an error.
func (s *CorrectionServiceImpl) GetUserStats(userID string) (*dto.UserStatsResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			limit := models.GetPlanConfig(models.DefaultPlan).MonthlyLimit
			return &dto.UserStatsResponse{
				MonthlyLimit: limit,
				Remaining:    int64(limit),
			}, nil
		}
		return nil, apperrors.InternalError(err)
	}

	usage, err := s.quotaService.MonthlyUsage(userID, user.Plan)
	if err != nil {
		return nil, err
	}

	remaining := int64(usage.Limit) - usage.Count
	if remaining < 0 {
		remaining = 0
	}

	return &dto.UserStatsResponse{
		TotalCorrections: usage.Count,
		MonthlyLimit:     usage.Limit,
		Remaining:        remaining,
		TotalTokensUsed:  usage.Tokens,
	}, nil
}
