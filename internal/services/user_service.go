package services

import (
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"
)

type UserService interface {
	GetProfile(userID string) (*dto.UserResponse, error)
	UpdateCorrectionStyle(userID, style string) error
	UpdateShortcut(userID, shortcut string) error
}

type UserServiceImpl struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &UserServiceImpl{userRepo: userRepo}
}

func (s *UserServiceImpl) GetProfile(userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserServiceImpl) UpdateCorrectionStyle(userID, style string) error {
	if err := s.userRepo.UpdateCorrectionStyle(userID, style); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrResourceNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *UserServiceImpl) UpdateShortcut(userID, shortcut string) error {
	if err := s.userRepo.UpdateShortcut(userID, shortcut); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrResourceNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}
