package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"habbit_backend/internal/ai"
	"habbit_backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database. The named
// shared-cache DSN keeps all pooled connections on the same database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Subscription{}, &models.Correction{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// mockAIProvider scripts engine responses and records call counts.
type mockAIProvider struct {
	mu          sync.Mutex
	calls       int
	streamCalls int

	result    *ai.CorrectionResult
	err       error
	streamFn  func(ctx context.Context) <-chan ai.StreamChunk
	streamErr error
}

func (m *mockAIProvider) CorrectText(ctx context.Context, text, language, style string) (*ai.CorrectionResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &ai.CorrectionResult{CorrectedText: text, TokensUsed: 10}, nil
}

func (m *mockAIProvider) CorrectTextStream(ctx context.Context, text, language, style string) (<-chan ai.StreamChunk, error) {
	m.mu.Lock()
	m.streamCalls++
	m.mu.Unlock()

	if m.streamErr != nil {
		return nil, m.streamErr
	}
	if m.streamFn != nil {
		return m.streamFn(ctx), nil
	}

	out := make(chan ai.StreamChunk, 1)
	close(out)
	return out, nil
}

func (m *mockAIProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockMailer records welcome deliveries instead of sending them.
type mockMailer struct {
	mu       sync.Mutex
	welcomes []string
	err      error
}

func (m *mockMailer) SendWelcome(to, userEmail, tempPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *mockMailer) welcomeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.welcomes)
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:           email,
		PasswordHash:    "x",
		Plan:            models.UserPlanPro,
		Role:            models.UserRoleUser,
		CorrectionStyle: string(models.CorrectionStyleCorrect),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func seedCorrections(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()

	rows := make([]models.Correction, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.Correction{
			UserID:        userID,
			OriginalText:  "texto",
			CorrectedText: "texto",
			Language:      "pt",
			TokensUsed:    1,
		})
	}
	if err := db.CreateInBatches(rows, 500).Error; err != nil {
		t.Fatalf("failed to seed corrections: %v", err)
	}
}
