package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/spec-kit/legal-intake/internal/auth"
	"github.com/spec-kit/legal-intake/internal/config"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/repository"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// AuthService coordinates registration, login and session resolution.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
}

// RegisterInput is the account creation payload.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		bcryptCost: cfg.BcryptCost,
		dispatcher: dispatcher,
	}
}

// Authenticate exchanges credentials for a session and its bearer token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Session, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, "", err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", apperrors.NewInvalidCredentials()
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return sessionFor(user, exp), token, nil
}

// SessionFromToken resolves a bearer token. The user is reloaded so deleted
// accounts stop working before their tokens expire.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthenticated("invalid or expired token")
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthenticated("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != claims.Role {
		return nil, apperrors.NewUnauthenticated("token role mismatch")
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return sessionFor(user, exp), nil
}

// Register creates a client account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := s.createUser(ctx, input, domain.RoleClient)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventUserRegistered,
		Subject: user.ID,
		Actor:   events.Actor{Role: user.Role, Identity: user.ID},
		Payload: events.UserRegisteredPayload{Email: user.Email, FullName: user.FullName},
	})
	return user, nil
}

// CreateAdmin bootstraps the first staff account. Once any admin exists the
// call is rejected; the store enforces this atomically, HasRole only skips
// hashing for the common case.
func (s *AuthService) CreateAdmin(ctx context.Context, input RegisterInput) (*domain.User, error) {
	exists, err := s.users.HasRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAdminExists()
	}
	user, err := s.createUser(ctx, input, domain.RoleAdmin)
	if errors.Is(err, repository.ErrAdminExists) {
		return nil, errAdminExists()
	}
	return user, err
}

func errAdminExists() error {
	return apperrors.NewConflict("an admin account already exists", nil)
}

// Me returns the profile behind session.
func (s *AuthService) Me(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if err := auth.Authenticated(session); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, session.Identity)
	if err != nil {
		return nil, notFound(err, "user", session.Identity)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		Role:         role,
	}
	insert := s.users.Create
	if role == domain.RoleAdmin {
		insert = s.users.CreateFirstAdmin
	}
	if err := insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, err
	}
	return user, nil
}

func validateRegistration(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required, is.EmailFormat),
		validation.Field(&input.Password, auth.PasswordRules...),
		validation.Field(&input.FullName, validation.RuneLength(0, 200)),
	)
	return validationError("invalid registration", err)
}

func sessionFor(user *domain.User, exp time.Time) *domain.Session {
	return &domain.Session{
		Identity:    user.ID,
		Role:        user.Role,
		DisplayName: user.DisplayName(),
		Email:       user.Email,
		ExpiresAt:   exp,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
