package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// UserService defines the interface for user operations
type UserService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUnassignedStudents(ctx context.Context) ([]*models.User, error)
	ListStudentsOfTeacher(ctx context.Context, teacherID int64) ([]*models.User, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	store  UserStore
	hasher PasswordHasher
	roles  RoleChecker
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(store UserStore, hasher PasswordHasher, roles RoleChecker, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		store:  store,
		hasher: hasher,
		roles:  roles,
		logger: logger,
	}
}

// ListUsers returns every user
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.List(ctx)
}

// ListUsersByRole returns the users holding role
func (s *userServiceImpl) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.ErrUnknownRole
	}
	return s.store.ListByRole(ctx, role)
}

// GetUser retrieves a user by ID
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

// ListUnassignedStudents returns students with no assigned teacher
func (s *userServiceImpl) ListUnassignedStudents(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUnassignedStudents(ctx)
}

// ListStudentsOfTeacher returns the students assigned to the teacher with teacherID
func (s *userServiceImpl) ListStudentsOfTeacher(ctx context.Context, teacherID int64) ([]*models.User, error) {
	if _, err := s.roles.ValidateTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	return s.store.ListStudentsByTeacher(ctx, teacherID)
}

// CreateUser validates and persists a new user with a hashed password
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	in := userInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	}
	role, err := in.normalize(true)
	if err != nil {
		return nil, err
	}

	user, err := createUser(ctx, s.store, s.hasher, in, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Str("role", string(role)).Msg("User created")
	return user, nil
}

// UpdateUser overwrites username, email, department and role. The password is
// re-hashed only when a new one is supplied.
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	in := userInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	}
	role, err := in.normalize(false)
	if err != nil {
		return nil, err
	}

	var newHash string
	if in.Password != "" {
		if newHash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Email != existing.Email {
			taken, err := s.store.EmailExists(ctx, in.Email)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.ErrEmailAlreadyExists
			}
		}

		if in.Username != existing.Username {
			taken, err := s.store.UsernameExists(ctx, in.Username)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.ErrUsernameAlreadyExists
			}
		}

		if existing.Role == models.RoleTeacher && role != models.RoleTeacher {
			if err := s.unassignStudentsOf(ctx, existing.ID); err != nil {
				return err
			}
		}
		if role != models.RoleStudent {
			existing.Unassign()
		}

		existing.Username = in.Username
		existing.Email = in.Email
		existing.Department = in.Department
		existing.Role = role
		if newHash != "" {
			existing.Password = newHash
		}

		if err := s.store.Update(ctx, existing); err != nil {
			return err
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Bool("passwordChanged", newHash != "").Msg("User updated")
	return user, nil
}

// DeleteUser removes a user. A teacher's students are unassigned before the teacher is removed.
func (s *userServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if user.HasRole(models.RoleTeacher) {
			if err := s.unassignStudentsOf(ctx, user.ID); err != nil {
				return err
			}
		}

		return s.store.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("userID", id).Msg("User deleted")
	return nil
}

// unassignStudentsOf clears and persists the assigned teacher of every student of teacherID
func (s *userServiceImpl) unassignStudentsOf(ctx context.Context, teacherID int64) error {
	students, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return err
	}

	for _, student := range students {
		if err := s.store.SetAssignedTeacher(ctx, student.ID, nil); err != nil {
			return fmt.Errorf("error unassigning student %d: %w", student.ID, err)
		}
	}

	if len(students) > 0 {
		s.logger.Info().Int64("teacherID", teacherID).Int("students", len(students)).Msg("Students unassigned from teacher")
	}
	return nil
}

// createUser enforces username and email uniqueness, hashes the password and persists the user.
// Shared by admin creation and self-registration.
func createUser(ctx context.Context, store UserStore, hasher PasswordHasher, in userInput, role models.Role) (*models.User, error) {
	taken, err := store.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	taken, err = store.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   hash,
		Department: in.Department,
		Role:       role,
	}
	if err := store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
