package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"habbit_backend/internal/ai"
	"habbit_backend/internal/models"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type correctionFixture struct {
	svc            CorrectionService
	correctionRepo repositories.CorrectionRepository
	db             *gorm.DB
	user           *models.User
}

func newCorrectionFixture(t *testing.T, provider *mockAIProvider) *correctionFixture {
	t.Helper()

	db := openTestDB(t)
	correctionRepo := repositories.NewCorrectionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	quota := NewQuotaService(correctionRepo)

	return &correctionFixture{
		svc:            NewCorrectionService(correctionRepo, userRepo, quota, provider),
		correctionRepo: correctionRepo,
		db:             db,
		user:           createTestUser(t, db, "user@habbit.app"),
	}
}

func (f *correctionFixture) ledgerCount(t *testing.T) int64 {
	t.Helper()
	count, err := f.correctionRepo.CountByUserInCurrentMonth(f.user.ID)
	require.NoError(t, err)
	return count
}

func TestCorrectText_PersistsAndReportsUsage(t *testing.T) {
	provider := &mockAIProvider{
		result: &ai.CorrectionResult{
			CorrectedText: "Olá, mundo!",
			Changes: []models.TextChange{
				{Type: "spelling", Original: "ola", Corrected: "Olá"},
			},
			TokensUsed: 42,
		},
	}
	f := newCorrectionFixture(t, provider)

	resp, err := f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola mundo"})
	require.NoError(t, err)

	assert.Equal(t, "Olá, mundo!", resp.Correction.CorrectedText)
	assert.Equal(t, int64(1), resp.MonthlyUsage)
	assert.Equal(t, 3000, resp.MonthlyLimit)
	assert.NotEmpty(t, resp.Correction.ID)

	stored, err := f.correctionRepo.FindByID(resp.Correction.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, stored.UserID)
	assert.Equal(t, 42, stored.TokensUsed)
	assert.NotEmpty(t, stored.Changes)

	assert.Equal(t, int64(1), f.ledgerCount(t))
}

func TestCorrectText_UnknownUser(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	_, err := f.svc.CorrectText(context.Background(), "00000000-0000-0000-0000-000000000000", &dto.CorrectTextRequest{Text: "ola"})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.Equal(t, 0, provider.callCount(), "engine must not be called for unknown users")
}

func TestCorrectText_LimitBoundary(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	limit := models.GetPlanConfig(models.UserPlanPro).MonthlyLimit

	// One below the ceiling: the request must pass and land exactly on it.
	seedCorrections(t, f.db, f.user.ID, limit-1)

	resp, err := f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	require.NoError(t, err)
	assert.Equal(t, int64(limit), resp.MonthlyUsage)

	// At the ceiling: rejected before the engine runs, nothing written.
	callsBefore := provider.callCount()
	_, err = f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	assert.ErrorIs(t, err, apperrors.ErrMonthlyLimitExceeded)
	assert.Equal(t, callsBefore, provider.callCount())

	assert.Equal(t, int64(limit), f.ledgerCount(t))
}

func TestCorrectText_EngineFailureWritesNothing(t *testing.T) {
	provider := &mockAIProvider{err: errors.New("upstream 500")}
	f := newCorrectionFixture(t, provider)

	_, err := f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	assert.ErrorIs(t, err, apperrors.ErrCorrectionEngineError)

	assert.Equal(t, int64(0), f.ledgerCount(t), "a failed engine call must not be charged")
}

func TestCorrectTextStream_PersistsOnCompletion(t *testing.T) {
	provider := &mockAIProvider{
		streamFn: func(ctx context.Context) <-chan ai.StreamChunk {
			out := make(chan ai.StreamChunk, 3)
			out <- ai.StreamChunk{Content: "Olá, "}
			out <- ai.StreamChunk{Content: "mundo!"}
			close(out)
			return out
		},
	}
	f := newCorrectionFixture(t, provider)

	stream, err := f.svc.CorrectTextStream(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola mundo"})
	require.NoError(t, err)

	var assembled string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		assembled += chunk.Content
	}
	assert.Equal(t, "Olá, mundo!", assembled)

	assert.Eventually(t, func() bool {
		count, err := f.correctionRepo.CountByUserInCurrentMonth(f.user.ID)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond, "completed stream must be persisted")

	rows, err := f.correctionRepo.FindManyByUserID(f.user.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Olá, mundo!", rows[0].CorrectedText)
	assert.Equal(t, "ola mundo", rows[0].OriginalText)
}

func TestCorrectTextStream_FailureWritesNothing(t *testing.T) {
	provider := &mockAIProvider{
		streamFn: func(ctx context.Context) <-chan ai.StreamChunk {
			out := make(chan ai.StreamChunk, 2)
			out <- ai.StreamChunk{Content: "Olá"}
			out <- ai.StreamChunk{Err: errors.New("connection reset")}
			close(out)
			return out
		},
	}
	f := newCorrectionFixture(t, provider)

	stream, err := f.svc.CorrectTextStream(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	require.NoError(t, err)

	sawErr := false
	for chunk := range stream {
		if chunk.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr)

	// Give the persistence goroutine a moment; it must stay silent.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), f.ledgerCount(t))
}

func TestCorrectTextStream_CancelWritesNothing(t *testing.T) {
	provider := &mockAIProvider{
		streamFn: func(ctx context.Context) <-chan ai.StreamChunk {
			out := make(chan ai.StreamChunk)
			go func() {
				defer close(out)
				for i := 0; i < 100; i++ {
					select {
					case out <- ai.StreamChunk{Content: "x"}:
					case <-ctx.Done():
						return
					}
				}
			}()
			return out
		},
	}
	f := newCorrectionFixture(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := f.svc.CorrectTextStream(ctx, f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	require.NoError(t, err)

	<-stream
	cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), f.ledgerCount(t), "a canceled stream must not be charged")
}

func TestCorrectTextStream_QuotaGateRunsUpFront(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	limit := models.GetPlanConfig(models.UserPlanPro).MonthlyLimit
	seedCorrections(t, f.db, f.user.ID, limit)

	_, err := f.svc.CorrectTextStream(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	assert.ErrorIs(t, err, apperrors.ErrMonthlyLimitExceeded)
	assert.Equal(t, 0, provider.streamCalls)
}

func TestGetCorrection_OwnershipEnforced(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	resp, err := f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
	require.NoError(t, err)

	_, err = f.svc.GetCorrection("someone-else", resp.Correction.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAllowed)

	got, err := f.svc.GetCorrection(f.user.ID, resp.Correction.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Correction.ID, got.ID)

	err = f.svc.DeleteCorrection("someone-else", resp.Correction.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAllowed)

	err = f.svc.DeleteCorrection(f.user.ID, resp.Correction.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.ledgerCount(t))
}

func TestGetCorrection_MissingRecord(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	_, err := f.svc.GetCorrection(f.user.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestGetUserStats_UnknownUserGetsZeros(t *testing.T) {
	provider := &mockAIProvider{}
	f := newCorrectionFixture(t, provider)

	stats, err := f.svc.GetUserStats("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalCorrections)
	assert.Equal(t, 3000, stats.MonthlyLimit)
	assert.Equal(t, int64(3000), stats.Remaining)
}

func TestGetUserStats_ReflectsLedger(t *testing.T) {
	provider := &mockAIProvider{result: &ai.CorrectionResult{CorrectedText: "ok", TokensUsed: 7}}
	f := newCorrectionFixture(t, provider)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CorrectText(context.Background(), f.user.ID, &dto.CorrectTextRequest{Text: "ola"})
		require.NoError(t, err)
	}

	stats, err := f.svc.GetUserStats(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCorrections)
	assert.Equal(t, int64(2997), stats.Remaining)
	assert.Equal(t, int64(21), stats.TotalTokensUsed)
}
