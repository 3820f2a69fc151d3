package repositories

import (
	"errors"
	"time"

	"habbit_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCorrectionNotFound = errors.New("correction not found")

type CorrectionRepository interface {
	Create(correction *models.Correction) error
	FindByID(id string) (*models.Correction, error)
	FindManyByUserID(userID string, page, perPage int) ([]models.Correction, error)
	Delete(id string) error
	CountByUserInCurrentMonth(userID string) (int64, error)
	SumTokensByUserInCurrentMonth(userID string) (int64, error)
}

type CorrectionRepositoryImpl struct {
	db *gorm.DB
}

func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &CorrectionRepositoryImpl{db: db}
}

func (r *CorrectionRepositoryImpl) Create(correction *models.Correction) error {
	return r.db.Create(correction).Error
}

func (r *CorrectionRepositoryImpl) FindByID(id string) (*models.Correction, error) {
	var correction models.Correction
	err := r.db.First(&correction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCorrectionNotFound
		}
		return nil, err
	}
	return &correction, nil
}

func (r *CorrectionRepositoryImpl) FindManyByUserID(userID string, page, perPage int) ([]models.Correction, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var corrections []models.Correction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&corrections).Error
	return corrections, err
}

func (r *CorrectionRepositoryImpl) Delete(id string) error {
	result := r.db.Delete(&models.Correction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCorrectionNotFound
	}
	return nil
}

// CountByUserInCurrentMonth counts ledger rows inside the current calendar
// month in server-local time. The count is only as fresh as the last
// committed row; two concurrent requests can observe the same value.
func (r *CorrectionRepositoryImpl) CountByUserInCurrentMonth(userID string) (int64, error) {
	start, end := currentMonthWindow(time.Now())

	var count int64
	err := r.db.Model(&models.Correction{}).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Count(&count).Error
	return count, err
}

func (r *CorrectionRepositoryImpl) SumTokensByUserInCurrentMonth(userID string) (int64, error) {
	start, end := currentMonthWindow(time.Now())

	var total *int64
	err := r.db.Model(&models.Correction{}).
		Select("SUM(tokens_used)").
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		// No rows in the window
		return 0, nil
	}
	return *total, nil
}

// currentMonthWindow returns [first day 00:00:00, last day 23:59:59] of the
// month containing now.
func currentMonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, now.Location())
	return start, end
}
