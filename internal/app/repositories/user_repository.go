package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
	"github.com/yigit/studentmanagement/internal/pkg/dberrors"
)

// Every read joins the assigned teacher so it can be embedded in the response.
const selectUsers = `
	SELECT u.id, u.username, u.password, u.email, u.department, u.role, u.teacher_id, u.created_at, u.updated_at,
		t.id, t.username, t.email, t.department, t.role
	FROM users u
	LEFT JOIN users t ON t.id = u.teacher_id`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx runs fn in a transaction. Repository calls made with the ctx passed to fn join it.
func (r *UserRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, r.db, fn)
}

// Create inserts user and fills in its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (username, password, email, department, role, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Password, user.Email, user.Department, string(user.Role), user.TeacherID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapWriteError("error creating user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, selectUsers+` WHERE u.id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, selectUsers+` WHERE u.username = $1`, username)
}

// List returns every user ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.getMany(ctx, selectUsers+` ORDER BY u.id`)
}

// ListByRole returns the users holding role ordered by ID
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return r.getMany(ctx, selectUsers+` WHERE u.role = $1 ORDER BY u.id`, string(role))
}

// ListUnassignedStudents returns students without an assigned teacher
func (r *UserRepository) ListUnassignedStudents(ctx context.Context) ([]*models.User, error) {
	return r.getMany(ctx, selectUsers+` WHERE u.role = $1 AND u.teacher_id IS NULL ORDER BY u.id`, string(models.RoleStudent))
}

// ListStudentsByTeacher returns the students assigned to teacherID
func (r *UserRepository) ListStudentsByTeacher(ctx context.Context, teacherID int64) ([]*models.User, error) {
	return r.getMany(ctx, selectUsers+` WHERE u.teacher_id = $1 ORDER BY u.id`, teacherID)
}

// UsernameExists checks if a username is taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

// EmailExists checks if an email is taken
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

// Update overwrites every mutable column of user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE users
		SET username = $1, password = $2, email = $3, department = $4, role = $5, teacher_id = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`,
		user.Username, user.Password, user.Email, user.Department, string(user.Role), user.TeacherID, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return mapWriteError("error updating user", err)
	}
	return nil
}

// SetAssignedTeacher points studentID at teacherID; nil clears the assignment
func (r *UserRepository) SetAssignedTeacher(ctx context.Context, studentID int64, teacherID *int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE users SET teacher_id = $1, updated_at = NOW() WHERE id = $2`,
		teacherID, studentID)
	if err != nil {
		return fmt.Errorf("error updating assigned teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes the user with id
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Count returns the number of stored users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                               models.User
		role                               string
		teacherID                          *int64
		tUsername, tEmail, tDept, tRoleStr *string
	)

	err := row.Scan(
		&user.ID, &user.Username, &user.Password, &user.Email, &user.Department, &role, &user.TeacherID,
		&user.CreatedAt, &user.UpdatedAt,
		&teacherID, &tUsername, &tEmail, &tDept, &tRoleStr,
	)
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	if teacherID != nil {
		user.AssignedTeacher = &models.TeacherSummary{
			ID:         *teacherID,
			Username:   deref(tUsername),
			Email:      deref(tEmail),
			Department: deref(tDept),
			Role:       models.Role(deref(tRoleStr)),
		}
	}
	return &user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// mapWriteError turns unique violations into the matching conflict error
// and oversized column values into a validation error
func mapWriteError(msg string, err error) error {
	switch {
	case dberrors.IsValueTooLong(err):
		return fmt.Errorf("%s: %w", msg, apperrors.NewValidationError("value too long for column"))
	case dberrors.IsDuplicateConstraintError(err, dberrors.UsersUsernameKey):
		return apperrors.ErrUsernameAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, dberrors.UsersEmailKey):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
