package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/email"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(id auth.Identity) (*auth.IssuedToken, error)
}

// TokenRevoker invalidates access tokens before they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// RegisterInput holds the registration form
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is an authenticated user and a fresh access token
type AuthResult struct {
	User  *models.User
	Token *auth.IssuedToken
}

// RegisterOutcome is a committed registration plus the welcome email attempt
type RegisterOutcome struct {
	AuthResult
	Notification email.Result
}

// Message is the user facing summary of the registration
func (o *RegisterOutcome) Message() string {
	if o.Notification.Delivered {
		return "Registration successful! Please check your email for login details."
	}
	return "Registration successful!"
}

// Warning is set when the welcome email was not delivered
func (o *RegisterOutcome) Warning() string {
	if o.Notification.Delivered {
		return ""
	}
	return "The welcome email could not be sent."
}

// AuthService handles authentication operations
type AuthService struct {
	tx           db.TxManager
	users        UserStore
	tokens       TokenIssuer
	revoker      TokenRevoker
	notifier     Notifier
	hashPassword func(string) (string, error)
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tx db.TxManager,
	users UserStore,
	tokens TokenIssuer,
	revoker TokenRevoker,
	notifier Notifier,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		tx:           tx,
		users:        users,
		tokens:       tokens,
		revoker:      revoker,
		notifier:     notifier,
		hashPassword: auth.HashPassword,
		logger:       logger.With().Str("component", "auth_service").Logger(),
	}
}

func validateRegistration(in RegisterInput) (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" {
		return in, apperrors.NewValidationError("username cannot be empty")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return in, apperrors.NewValidationError("invalid email format")
	}
	if len(in.Password) < MinPasswordLength {
		return in, apperrors.NewValidationError("password must be at least 8 characters long")
	}
	return in, nil
}

// Register creates the account, then sends the welcome email and logs the
// new user in. A taken username or email fails with a conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterOutcome, error) {
	in, err := validateRegistration(in)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to hash password", err)
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: hashed}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("username", in.Username).Msg("Registration error")
		return nil, classify("failed to register user", err)
	}
	s.logger.Info().Int64("userId", user.ID).Msg("User registered")

	result := s.notifier.Send(ctx, email.KindWelcome,
		email.Recipient{Username: user.Username, Email: user.Email}, email.Fields{})

	token, err := s.tokens.GenerateToken(identityOf(user))
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to issue access token", err)
	}

	return &RegisterOutcome{
		AuthResult:   AuthResult{User: user, Token: token},
		Notification: result,
	}, nil
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, classify("failed to load user", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		s.logger.Warn().Str("username", user.Username).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(identityOf(user))
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to issue access token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return apperrors.ErrTokenInvalid
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewPersistenceError("failed to revoke token", err)
	}
	s.logger.Info().Int64("userId", claims.UserID).Msg("User logged out")
	return nil
}

// Me returns the stored account of actor
func (s *AuthService) Me(ctx context.Context, actor auth.Identity) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, classify("failed to load user", err)
	}
	return user, nil
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{ID: u.ID, Username: u.Username, Email: u.Email}
}
