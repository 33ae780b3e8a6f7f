package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// UserLookup is the store dependency of AuthorizationService
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService checks that users hold the role an operation requires
type AuthorizationService struct {
	users  UserLookup
	logger zerolog.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserLookup, logger zerolog.Logger) *AuthorizationService {
	return &AuthorizationService{
		users:  users,
		logger: logger,
	}
}

// ensureRole loads the user and fails with an InvalidRole error unless it holds role
func (s *AuthorizationService) ensureRole(ctx context.Context, userID int64, role models.Role) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID")
		}
		return nil, err
	}

	if err := s.CheckRole(user, role); err != nil {
		return nil, err
	}
	return user, nil
}

// CheckRole fails with an InvalidRole error unless user holds role
func (s *AuthorizationService) CheckRole(user *models.User, role models.Role) error {
	if !user.HasRole(role) {
		return roleError(role)
	}
	return nil
}

// ValidateStudent loads the user and fails with ErrNotStudent unless it is a student
func (s *AuthorizationService) ValidateStudent(ctx context.Context, userID int64) (*models.User, error) {
	return s.ensureRole(ctx, userID, models.RoleStudent)
}

// ValidateTeacher loads the user and fails with ErrNotTeacher unless it is a teacher
func (s *AuthorizationService) ValidateTeacher(ctx context.Context, userID int64) (*models.User, error) {
	return s.ensureRole(ctx, userID, models.RoleTeacher)
}

func roleError(role models.Role) error {
	switch role {
	case models.RoleStudent:
		return apperrors.ErrNotStudent
	case models.RoleTeacher:
		return apperrors.ErrNotTeacher
	default:
		return fmt.Errorf("%w: user is not %s", apperrors.ErrInvalidRole, role)
	}
}
