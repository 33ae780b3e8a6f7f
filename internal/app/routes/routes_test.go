package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/studentmanagement/internal/app/controllers"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/middleware"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
	"github.com/yigit/studentmanagement/internal/pkg/auth"
	"github.com/yigit/studentmanagement/internal/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockUserService struct{ mock.Mock }

func usersArg(args mock.Arguments, i int) []*models.User {
	users, _ := args.Get(i).([]*models.User)
	return users
}

func userArg(args mock.Arguments, i int) *models.User {
	user, _ := args.Get(i).(*models.User)
	return user
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return usersArg(args, 0), args.Error(1)
}

func (m *mockUserService) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	args := m.Called(ctx, role)
	return usersArg(args, 0), args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserService) ListUnassignedStudents(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return usersArg(args, 0), args.Error(1)
}

func (m *mockUserService) ListStudentsOfTeacher(ctx context.Context, teacherID int64) ([]*models.User, error) {
	args := m.Called(ctx, teacherID)
	return usersArg(args, 0), args.Error(1)
}

type mockAssignmentService struct{ mock.Mock }

func (m *mockAssignmentService) Assign(ctx context.Context, studentID, teacherID int64) (*models.User, error) {
	args := m.Called(ctx, studentID, teacherID)
	return userArg(args, 0), args.Error(1)
}

func (m *mockAssignmentService) Unassign(ctx context.Context, studentID int64) (*models.User, error) {
	args := m.Called(ctx, studentID)
	return userArg(args, 0), args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	return userArg(args, 0), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*dto.LoginResponse)
	return resp, args.Error(1)
}

type testServer struct {
	router      *gin.Engine
	jwt         *auth.JWTService
	users       *mockUserService
	assignments *mockAssignmentService
	auth        *mockAuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		router:      gin.New(),
		jwt:         auth.NewJWTService(auth.JWTConfig{SecretKey: "routes-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"}),
		users:       new(mockUserService),
		assignments: new(mockAssignmentService),
		auth:        new(mockAuthService),
	}
	log := zerolog.Nop()
	m := metrics.New()
	s.router.Use(middleware.Metrics(m))
	SetupRouter(s.router, Handlers{
		Auth:   controllers.NewAuthController(s.auth, log),
		Admin:  controllers.NewAdminController(s.users, s.assignments, log),
		User:   controllers.NewUserController(s.users),
		Health: controllers.NewHealthController(),
	}, middleware.NewAuthMiddleware(s.jwt, log), m.Handler())

	t.Cleanup(func() {
		s.users.AssertExpectations(t)
		s.assignments.AssertExpectations(t)
		s.auth.AssertExpectations(t)
	})
	return s
}

func (s *testServer) token(t *testing.T, role models.Role) string {
	t.Helper()
	token, _, err := s.jwt.GenerateToken(&models.User{ID: 1, Username: "caller", Email: "caller@x.com", Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestRouteGating(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, models.RoleAdmin)
	teacher := s.token(t, models.RoleTeacher)
	student := s.token(t, models.RoleStudent)

	s.users.On("ListUsers", mock.Anything).Return([]*models.User{}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"admin list without token", http.MethodGet, "/api/admin/users", "", http.StatusUnauthorized},
		{"admin list as teacher", http.MethodGet, "/api/admin/users", teacher, http.StatusForbidden},
		{"admin list as student", http.MethodGet, "/api/admin/users", student, http.StatusForbidden},
		{"admin assign as student", http.MethodPut, "/api/admin/assign/1/to/2", student, http.StatusForbidden},
		{"admin delete without token", http.MethodDelete, "/api/admin/users/3", "", http.StatusUnauthorized},
		{"admin list as admin", http.MethodGet, "/api/admin/users", admin, http.StatusOK},
		{"users without token", http.MethodGet, "/api/users", "", http.StatusUnauthorized},
		{"users with garbage token", http.MethodGet, "/api/users", "garbage", http.StatusUnauthorized},
		{"users as student", http.MethodGet, "/api/users", student, http.StatusOK},
		{"teachers students without token", http.MethodGet, "/api/teachers/2/students", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, "UP", root["status"])
	assert.Contains(t, root, "endpoints")

	rec = s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "studentmanagement_http_requests_total"))
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	registered := &models.User{ID: 7, Username: "john", Email: "john@x.com", Department: "Maths", Role: models.RoleTeacher}
	s.auth.On("Register", mock.Anything, mock.MatchedBy(func(r *dto.RegisterRequest) bool { return r.Username == "john" })).
		Return(registered, nil).Once()
	s.auth.On("Register", mock.Anything, mock.MatchedBy(func(r *dto.RegisterRequest) bool { return r.Username == "taken" })).
		Return(nil, apperrors.ErrUsernameAlreadyExists).Once()
	s.auth.On("Login", mock.Anything, mock.MatchedBy(func(r *dto.LoginRequest) bool { return r.Password == "right" })).
		Return(&dto.LoginResponse{Token: "tok", TokenType: "Bearer", ExpiresIn: 3600, Username: "john", Role: "TEACHER"}, nil).Once()
	s.auth.On("Login", mock.Anything, mock.MatchedBy(func(r *dto.LoginRequest) bool { return r.Password == "wrong" })).
		Return(nil, apperrors.ErrInvalidCredentials).Once()

	register := map[string]string{"username": "john", "email": "john@x.com", "password": "pw", "department": "Maths", "role": "TEACHER"}
	rec := s.do(http.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	register["username"] = "taken"
	rec = s.do(http.MethodPost, "/api/auth/register", "", register)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeResourceAlreadyExists, errorCode(t, rec))

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, rec))

	register["username"] = "long"
	register["password"] = strings.Repeat("p", 73)
	rec = s.do(http.MethodPost, "/api/auth/register", "", register)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, rec))
	assert.Contains(t, rec.Body.String(), "password must be at most 72 characters")

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "john", "password": "right"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Data.Token)
	assert.Equal(t, "Bearer", resp.Data.TokenType)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "john", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, errorCode(t, rec))
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, models.RoleAdmin)

	created := &models.User{ID: 10, Username: "alice", Email: "alice@x.com", Department: "CS", Role: models.RoleStudent}
	s.users.On("CreateUser", mock.Anything, mock.AnythingOfType("*dto.CreateUserRequest")).Return(created, nil).Once()
	s.users.On("UpdateUser", mock.Anything, int64(99), mock.AnythingOfType("*dto.UpdateUserRequest")).Return(nil, apperrors.ErrUserNotFound).Once()
	s.users.On("DeleteUser", mock.Anything, int64(10)).Return(nil).Once()
	s.users.On("ListUnassignedStudents", mock.Anything).Return([]*models.User{created}, nil).Once()
	s.users.On("ListUsersByRole", mock.Anything, models.RoleTeacher).Return(nil, errors.New("db down")).Once()
	s.assignments.On("Assign", mock.Anything, int64(10), int64(2)).Return(created, nil).Once()
	s.assignments.On("Assign", mock.Anything, int64(10), int64(3)).Return(nil, apperrors.ErrNotTeacher).Once()
	s.assignments.On("Unassign", mock.Anything, int64(11)).Return(nil, apperrors.ErrUserNotFound).Once()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   dto.ErrorCode
	}{
		{"create", http.MethodPost, "/api/admin/users", map[string]string{"username": "alice", "email": "alice@x.com", "password": "pw", "department": "CS", "role": "STUDENT"}, http.StatusCreated, ""},
		{"create with bad email", http.MethodPost, "/api/admin/users", map[string]string{"username": "alice", "email": "nope", "password": "pw", "department": "CS", "role": "STUDENT"}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"update missing user", http.MethodPut, "/api/admin/users/99", map[string]string{"username": "a", "email": "a@x.com", "department": "CS", "role": "STUDENT"}, http.StatusBadRequest, dto.ErrorCodeResourceNotFound},
		{"update with bad id", http.MethodPut, "/api/admin/users/abc", map[string]string{"username": "a"}, http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"delete", http.MethodDelete, "/api/admin/users/10", nil, http.StatusOK, ""},
		{"unassigned", http.MethodGet, "/api/admin/students/unassigned", nil, http.StatusOK, ""},
		{"teachers store failure", http.MethodGet, "/api/admin/teachers", nil, http.StatusBadRequest, dto.ErrorCodeInternalServer},
		{"create with long username", http.MethodPost, "/api/admin/users", map[string]string{"username": strings.Repeat("a", 101), "email": "alice@x.com", "password": "pw", "department": "CS", "role": "STUDENT"}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"create with long department", http.MethodPost, "/api/admin/users", map[string]string{"username": "alice", "email": "alice@x.com", "password": "pw", "department": strings.Repeat("d", 256), "role": "STUDENT"}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"update with long password", http.MethodPut, "/api/admin/users/99", map[string]string{"username": "a", "email": "a@x.com", "password": strings.Repeat("p", 73), "department": "CS", "role": "STUDENT"}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"assign", http.MethodPut, "/api/admin/assign/10/to/2", nil, http.StatusOK, ""},
		{"assign to non teacher", http.MethodPut, "/api/admin/assign/10/to/3", nil, http.StatusBadRequest, dto.ErrorCodeInvalidRole},
		{"unassign missing student", http.MethodPut, "/api/admin/unassign/11", nil, http.StatusBadRequest, dto.ErrorCodeResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, admin, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	student := s.token(t, models.RoleStudent)

	teacher := &models.User{ID: 2, Username: "bob", Email: "bob@x.com", Department: "CS", Role: models.RoleTeacher}
	alice := &models.User{ID: 10, Username: "alice", Email: "alice@x.com", Department: "CS", Role: models.RoleStudent}
	alice.AssignTo(teacher)

	s.users.On("GetUser", mock.Anything, int64(10)).Return(alice, nil).Once()
	s.users.On("GetUser", mock.Anything, int64(404)).Return(nil, apperrors.ErrUserNotFound).Once()
	s.users.On("ListUsersByRole", mock.Anything, models.RoleStudent).Return([]*models.User{alice}, nil).Once()
	s.users.On("ListStudentsOfTeacher", mock.Anything, int64(2)).Return([]*models.User{alice}, nil).Once()
	s.users.On("ListStudentsOfTeacher", mock.Anything, int64(10)).Return(nil, apperrors.ErrNotTeacher).Once()

	rec := s.do(http.MethodGet, "/api/users/10", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.Data["username"])
	assert.NotContains(t, got.Data, "password")
	require.Contains(t, got.Data, "assignedTeacher")
	assert.Equal(t, "bob", got.Data["assignedTeacher"].(map[string]any)["username"])

	rec = s.do(http.MethodGet, "/api/users/404", student, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrorCodeResourceNotFound, errorCode(t, rec))

	rec = s.do(http.MethodGet, "/api/users/x", student, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/students", student, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/teachers/2/students", student, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/teachers/10/students", student, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeInvalidRole, errorCode(t, rec))
}
