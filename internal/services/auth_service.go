package services

import (
	"habbit_backend/internal/auth"
	"habbit_backend/internal/models"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &AuthServiceImpl{userRepo: userRepo}
}

func (s *AuthServiceImpl) Register(req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:           req.Email,
		PasswordHash:    hash,
		Name:            req.Name,
		Plan:            models.UserPlanPro,
		Role:            models.UserRoleUser,
		CorrectionStyle: string(models.CorrectionStyleCorrect),
	}
	if err := s.userRepo.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	return s.issueSession(user)
}

func (s *AuthServiceImpl) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueSession(user)
}

func (s *AuthServiceImpl) issueSession(user *models.User) (*dto.LoginResponse, error) {
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		User:        ToUserResponse(user),
	}, nil
}

// ToUserResponse strips credentials and internals from the user record.
func ToUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Plan:            string(user.Plan),
		Role:            string(user.Role),
		CorrectionStyle: user.CorrectionStyle,
		Shortcut:        user.Shortcut,
	}
}
