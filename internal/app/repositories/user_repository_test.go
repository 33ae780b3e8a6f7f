package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

var userCols = []string{
	"id", "username", "password", "email", "department", "role", "teacher_id", "created_at", "updated_at",
	"t_id", "t_username", "t_email", "t_department", "t_role",
}

func ptr[T any](v T) *T { return &v }

func newRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserRepository_GetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		id        int64
		setupMock func(mock pgxmock.PgxPoolIface)
		check     func(t *testing.T, u *models.User)
		wantErr   error
	}{
		{
			name: "student with teacher",
			id:   7,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userCols).AddRow(
					int64(7), "alice_brown", "hash", "alice@student.com", "Computer Science", "STUDENT", ptr(int64(3)), now, now,
					ptr(int64(3)), ptr("bob_wilson"), ptr("bob@school.com"), ptr("Computer Science"), ptr("TEACHER"),
				)
				mock.ExpectQuery(`FROM users u\s+LEFT JOIN users t ON t.id = u.teacher_id WHERE u.id = \$1`).
					WithArgs(int64(7)).WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.User) {
				assert.Equal(t, models.RoleStudent, u.Role)
				require.NotNil(t, u.TeacherID)
				assert.Equal(t, int64(3), *u.TeacherID)
				require.NotNil(t, u.AssignedTeacher)
				assert.Equal(t, "bob_wilson", u.AssignedTeacher.Username)
				assert.Equal(t, models.RoleTeacher, u.AssignedTeacher.Role)
			},
		},
		{
			name: "user without teacher",
			id:   1,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userCols).AddRow(
					int64(1), "admin", "hash", "admin@example.com", "Administration", "ADMIN", nil, now, now,
					nil, nil, nil, nil, nil,
				)
				mock.ExpectQuery(`WHERE u.id = \$1`).WithArgs(int64(1)).WillReturnRows(rows)
			},
			check: func(t *testing.T, u *models.User) {
				assert.Equal(t, "admin", u.Username)
				assert.Nil(t, u.TeacherID)
				assert.Nil(t, u.AssignedTeacher)
			},
		},
		{
			name: "not found",
			id:   99,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`WHERE u.id = \$1`).WithArgs(int64(99)).WillReturnRows(pgxmock.NewRows(userCols))
			},
			wantErr: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			tt.setupMock(mock)

			got, err := repo.GetByID(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByIDStoreError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`WHERE u.id = \$1`).WithArgs(int64(1)).WillReturnError(errors.New("connection refused"))

	_, err := repo.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUserRepository_ListByRole(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	rows := pgxmock.NewRows(userCols).
		AddRow(int64(2), "john_doe", "h", "john@school.com", "Mathematics", "TEACHER", nil, now, now, nil, nil, nil, nil, nil).
		AddRow(int64(3), "jane_smith", "h", "jane@school.com", "Physics", "TEACHER", nil, now, now, nil, nil, nil, nil, nil)
	mock.ExpectQuery(`WHERE u.role = \$1 ORDER BY u.id`).WithArgs("TEACHER").WillReturnRows(rows)

	users, err := repo.ListByRole(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "john_doe", users[0].Username)
	assert.Equal(t, "jane_smith", users[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListEmpty(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`ORDER BY u.id`).WillReturnRows(pgxmock.NewRows(userCols))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_ListUnassignedStudents(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`u.teacher_id IS NULL`).WithArgs("STUDENT").WillReturnRows(pgxmock.NewRows(userCols))

	_, err := repo.ListUnassignedStudents(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		result  func(e *pgxmock.ExpectedQuery)
		wantErr error
	}{
		{
			name: "success",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
			},
		},
		{
			name: "duplicate username",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
			},
			wantErr: apperrors.ErrUsernameAlreadyExists,
		},
		{
			name: "duplicate email",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
			},
			wantErr: apperrors.ErrEmailAlreadyExists,
		},
		{
			name: "value too long",
			result: func(e *pgxmock.ExpectedQuery) {
				e.WillReturnError(&pgconn.PgError{Code: "22001", Message: "value too long for type character varying(100)"})
			},
			wantErr: apperrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			e := mock.ExpectQuery(`INSERT INTO users`).
				WithArgs("amy", "hash", "amy@school.com", "IT", "STUDENT", pgxmock.AnyArg())
			tt.result(e)

			u := &models.User{Username: "amy", Password: "hash", Email: "amy@school.com", Department: "IT", Role: models.RoleStudent}
			err := repo.Create(context.Background(), u)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(11), u.ID)
				assert.Equal(t, now, u.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`UPDATE users`).
		WithArgs("amy", "hash", "amy@school.com", "IT", "STUDENT", pgxmock.AnyArg(), int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	u := &models.User{ID: 5, Username: "amy", Password: "hash", Email: "amy@school.com", Department: "IT", Role: models.RoleStudent}
	assert.ErrorIs(t, repo.Update(context.Background(), u), apperrors.ErrUserNotFound)
}

func TestUserRepository_SetAssignedTeacher(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE users SET teacher_id = \$1`).WithArgs(pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET teacher_id = \$1`).WithArgs(pgxmock.AnyArg(), int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.SetAssignedTeacher(context.Background(), 7, ptr(int64(3))))
	assert.ErrorIs(t, repo.SetAssignedTeacher(context.Background(), 8, nil), apperrors.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), apperrors.ErrUserNotFound)
}

func TestUserRepository_ExistsAndCount(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \$1\)`).WithArgs("admin").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).WithArgs("x@y.z").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(9)))

	ok, err := repo.UsernameExists(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.EmailExists(context.Background(), "x@y.z")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_WithTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET teacher_id`).WithArgs(pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err := repo.WithTx(context.Background(), func(ctx context.Context) error {
			if err := repo.SetAssignedTeacher(ctx, 7, nil); err != nil {
				return err
			}
			return repo.Delete(ctx, 3)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()

		err := repo.WithTx(context.Background(), func(ctx context.Context) error {
			return repo.Delete(ctx, 3)
		})
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested calls share the transaction", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := repo.WithTx(context.Background(), func(ctx context.Context) error {
			return repo.WithTx(ctx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
