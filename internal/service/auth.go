package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/identity"
	"github.com/persistorai/auditdesk/internal/models"
)

// UserStore is the data-access interface AuthService depends on.
type UserStore interface {
	CreateAccount(ctx context.Context, email, passwordHash string, fullName *string, roleName string) (*models.User, error)
	GetCredentials(ctx context.Context, email string) (*models.Credentials, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ResolveRole(ctx context.Context, userID string) (string, error)
	UpdateProfile(ctx context.Context, userID, email string, fullName *string) (*models.User, error)
	AssignRole(ctx context.Context, userID string, roleID int) (*models.User, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	PublishSessionChange(userID, eventType string, user *models.User)
}

// TokenProvider issues, verifies and revokes session tokens.
type TokenProvider interface {
	Issue(user *models.User) (*models.Session, error)
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
	Revoke(ctx context.Context, ident models.Identity) error
}

// LoginLimiter locks out account names after repeated failed sign-ins.
type LoginLimiter interface {
	RetryAfter(name string) time.Duration
	RecordFailure(name string)
	Reset(name string)
}

// Compile-time check: *AuthService must satisfy domain.AuthService.
var _ domain.AuthService = (*AuthService)(nil)

// AuthService implements sign-up, sign-in, sessions and role administration.
type AuthService struct {
	store    UserStore
	tokens   TokenProvider
	limiter  LoginLimiter
	activity ActivityEnqueuer
	log      *logrus.Logger
}

// NewAuthService creates an AuthService. limiter may be nil.
func NewAuthService(
	store UserStore, tokens TokenProvider, limiter LoginLimiter, activity ActivityEnqueuer, log *logrus.Logger,
) *AuthService {
	return &AuthService{store: store, tokens: tokens, limiter: limiter, activity: activity, log: log}
}

// VerifyToken delegates to the token provider.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	return s.tokens.VerifyToken(ctx, token)
}

// ResolveRole returns the caller's primary role, read fresh from the store.
func (s *AuthService) ResolveRole(ctx context.Context, userID string) (string, error) {
	return s.store.ResolveRole(ctx, userID)
}

// SignUp registers an account with the default role and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error) {
	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.store.CreateAccount(ctx, req.Email, hash, req.FullName, models.DefaultSignupRole)
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, user.ID, "user.signup", "user", user.ID, nil)

	return s.tokens.Issue(user)
}

// Login verifies credentials and issues a session. Unknown e-mails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if s.limiter != nil {
		if wait := s.limiter.RetryAfter(req.Email); wait > 0 {
			return nil, &models.LockoutError{RetryAfter: wait}
		}
	}

	creds, err := s.store.GetCredentials(ctx, req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		identity.BurnPasswordCheck(req.Password)
		s.recordFailure(req.Email)

		return nil, models.ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if err := identity.VerifyPassword(creds.PasswordHash, req.Password); err != nil {
		s.recordFailure(req.Email)
		return nil, models.ErrInvalidCredentials
	}

	if s.limiter != nil {
		s.limiter.Reset(req.Email)
	}

	user, err := s.store.GetUser(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}

	return s.tokens.Issue(user)
}

func (s *AuthService) recordFailure(email string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(email)
	}
}

// Logout revokes the caller's token and tells their other clients.
func (s *AuthService) Logout(ctx context.Context, ident models.Identity) error {
	if err := s.tokens.Revoke(ctx, ident); err != nil {
		return err
	}

	s.store.PublishSessionChange(ident.ID, models.SessionSignedOut, nil)

	return nil
}

// Session returns the caller's current session without a token.
func (s *AuthService) Session(ctx context.Context, ident models.Identity) (*models.Session, error) {
	user, err := s.store.GetUser(ctx, ident.ID)
	if err != nil {
		return nil, err
	}

	return &models.Session{ExpiresAt: ident.ExpiresAt, User: user}, nil
}

// Profile returns a user's own profile (pass-through).
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfile edits the caller's e-mail and name and notifies their clients.
func (s *AuthService) UpdateProfile(
	ctx context.Context, userID string, req models.UpdateProfileRequest,
) (*models.User, error) {
	user, err := s.store.UpdateProfile(ctx, userID, req.Email, req.FullName)
	if err != nil {
		return nil, err
	}

	s.store.PublishSessionChange(userID, models.SessionUpdated, user)
	recordAsync(s.activity, userID, "user.profile.update", "user", userID, nil)

	return user, nil
}

// ListUsers returns every account (pass-through).
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser provisions an account with its profile and role in one step.
func (s *AuthService) CreateUser(
	ctx context.Context, actorID string, req models.CreateUserRequest,
) (*models.User, error) {
	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.store.CreateAccount(ctx, req.Email, hash, req.FullName, req.RoleName())
	if err != nil {
		return nil, err
	}

	recordAsync(s.activity, actorID, "user.create", "user", user.ID, map[string]any{"role": user.Role})

	return user, nil
}

// AssignRole grants a role and notifies the user's clients.
func (s *AuthService) AssignRole(ctx context.Context, actorID, userID string, roleID int) (*models.User, error) {
	user, err := s.store.AssignRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}

	s.store.PublishSessionChange(userID, models.SessionUpdated, user)
	recordAsync(s.activity, actorID, "user.role.assign", "user", userID, map[string]any{"role_id": roleID})

	s.log.WithFields(logrus.Fields{
		"actor":   actorID,
		"user_id": userID,
		"role_id": roleID,
	}).Info("role assigned")

	return user, nil
}

// ListRoles returns the role catalogue (pass-through).
func (s *AuthService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.store.ListRoles(ctx)
}
