package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

const tokenTypeBearer = "Bearer"

// AuthService handles registration and login
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authServiceImpl struct {
	store   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics AuthRecorder
	logger  zerolog.Logger
}

// NewAuthService creates a new AuthService. metrics may be nil.
func NewAuthService(store UserStore, hasher PasswordHasher, tokens TokenIssuer, metrics AuthRecorder, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// Register creates a user with the requested role. It does not log the user in.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	in := userInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	}
	role, err := in.normalize(true)
	if err != nil {
		s.record("register", "invalid")
		return nil, err
	}

	user, err := createUser(ctx, s.store, s.hasher, in, role)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			s.record("register", "conflict")
		} else {
			s.record("register", "error")
		}
		return nil, err
	}

	s.record("register", "success")
	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Str("role", string(role)).Msg("User registered")
	return user, nil
}

// Login verifies the credentials and issues an access token.
// A missing user and a wrong password fail the same way.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.record("login", "failure")
			return nil, apperrors.ErrInvalidCredentials
		}
		s.record("login", "error")
		return nil, err
	}

	ok, err := s.hasher.Compare(user.Password, req.Password)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Stored password hash could not be verified")
	}
	if err != nil || !ok {
		s.record("login", "failure")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.tokens.GenerateToken(user)
	if err != nil {
		s.record("login", "error")
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.record("login", "success")
	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User logged in")

	return &dto.LoginResponse{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresIn: expiresIn,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
	}, nil
}

func (s *authServiceImpl) record(event, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuth(event, outcome)
	}
}
