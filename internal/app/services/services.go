// Package services holds the business rules of the API:
//   - UserService: admin user management and read-only listings
//   - AssignmentService: student to teacher assignment
//   - AuthService: registration and login
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// UserStore is the persistence contract the services depend on.
// It is implemented by repositories.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	ListUnassignedStudents(ctx context.Context) ([]*models.User, error)
	ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	SetAssignedTeacher(ctx context.Context, studentID int64, teacherID *int64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) (bool, error)
}

// TokenIssuer issues signed access tokens
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, int64, error)
}

// RoleChecker verifies that a user holds a role. Implemented by auth.AuthorizationService.
type RoleChecker interface {
	ValidateStudent(ctx context.Context, userID int64) (*models.User, error)
	ValidateTeacher(ctx context.Context, userID int64) (*models.User, error)
	CheckRole(user *models.User, role models.Role) error
}

// AuthRecorder counts authentication outcomes. Implemented by metrics.Metrics.
type AuthRecorder interface {
	RecordAuth(event, outcome string)
}

var validate = validator.New()

// userInput is the common shape of register, create and update payloads
type userInput struct {
	Username   string
	Email      string
	Password   string
	Department string
	Role       string
}

// normalize trims and validates the input, returning the parsed role.
// requirePassword is false for updates, where an empty password keeps the stored hash.
func (in *userInput) normalize(requirePassword bool) (models.Role, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)

	if in.Username == "" {
		return "", apperrors.NewValidationError("username must not be blank")
	}
	if utf8.RuneCountInString(in.Username) > models.MaxUsernameLength {
		return "", tooLong("username", models.MaxUsernameLength, "characters")
	}
	if in.Email == "" {
		return "", apperrors.NewValidationError("email must not be blank")
	}
	if utf8.RuneCountInString(in.Email) > models.MaxEmailLength {
		return "", tooLong("email", models.MaxEmailLength, "characters")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return "", apperrors.NewValidationError("email must be a valid email address")
	}
	if in.Department == "" {
		return "", apperrors.NewValidationError("department must not be blank")
	}
	if utf8.RuneCountInString(in.Department) > models.MaxDepartmentLength {
		return "", tooLong("department", models.MaxDepartmentLength, "characters")
	}
	if requirePassword && in.Password == "" {
		return "", apperrors.NewValidationError("password must not be empty")
	}
	if len(in.Password) > models.MaxPasswordBytes {
		return "", tooLong("password", models.MaxPasswordBytes, "bytes")
	}

	return models.ParseRole(in.Role)
}

func tooLong(field string, limit int, unit string) error {
	return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d %s", field, limit, unit))
}
