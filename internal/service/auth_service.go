package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/repository"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users     repository.UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	logger    *zap.Logger
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Hasher   *auth.PasswordHasher
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// RegisterInput is the registration request. An empty Role means USER.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// AuthResult is returned by register and login. It never carries the hash.
type AuthResult struct {
	User      domain.UserSummary
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service. It fails when the login timing
// equalizer hash cannot be generated.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, err := deps.Hasher.DummyHash()
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	return &AuthService{
		users:     deps.UserRepo,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

// Register creates a credential record and returns a token for it. Duplicate
// emails are caught by the store's unique constraint. The email is stored
// trimmed but otherwise as given.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, passwordTooLong()
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, passwordTooLong()
		}
		return nil, s.fault("hash password", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, s.fault("create user", err)
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return result, nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same error, and both pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, password)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, s.fault("lookup user", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperrors.NewInvalidCredentials()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return result, nil
}

// TokenManager exposes the underlying token manager for the access gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, s.fault("issue token", err)
	}
	return &AuthResult{User: user.Summary(), Token: token, ExpiresAt: exp}, nil
}

func passwordTooLong() error {
	return apperrors.NewValidationError("password too long", map[string]any{
		"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes),
	})
}

func (s *AuthService) fault(op string, err error) error {
	s.logger.Error("auth operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewInternalError(err)
}
