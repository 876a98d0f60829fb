// Package auth implements registration, email verification, password reset
// and cookie sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/store"
	"github.com/redmonkez12/matcha/internal/token"
	"github.com/redmonkez12/matcha/internal/validation"
)

// Notifier delivers account emails. Failures are logged by the caller and
// never undo account writes.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
	SendPasswordResetEmail(ctx context.Context, to, link string) error
}

type Config struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	SessionTTL      time.Duration
	// FrontendURL is the base of links placed in emails.
	FrontendURL string
}

// PasswordHasher is satisfied by Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) bool
	NeedsRehash(encodedHash string) bool
}

// Service handles authentication business logic
type Service struct {
	store    store.Store
	tokens   *token.Service
	notifier Notifier
	hasher   PasswordHasher
	logger   *logging.Logger
	cfg      Config
	now      func() time.Time

	// dummyHash is verified against on unknown logins so they cost the
	// same as a wrong password.
	dummyHash string
}

func NewService(st store.Store, tokens *token.Service, notifier Notifier, hasher PasswordHasher, logger *logging.Logger, cfg Config) *Service {
	dummy, err := hasher.Hash("matcha-unknown-account")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}

	return &Service{
		store:     st,
		tokens:    tokens,
		notifier:  notifier,
		hasher:    hasher,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		dummyHash: dummy,
	}
}

type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,max=254,email_address"`
	Password  string `json:"password" validate:"required"`
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user, the empty profile and a verification token in
// one transaction, then sends the verification link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validation.Password("password", in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.Users().GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.NewConflictError("email", "email is already registered")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.Users().GetByUsername(ctx, in.Username); err == nil {
		return nil, domain.NewConflictError("username", "username is already taken")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var rawToken string
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Profiles().Create(ctx, &domain.Profile{
			UserID:    user.ID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		raw, _, err := s.tokens.Issue(ctx, tx.Tokens(), domain.PurposeVerifyEmail, user.ID, s.cfg.VerificationTTL)
		if err != nil {
			return err
		}
		rawToken = raw
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.sendVerification(ctx, user, rawToken)

	return user, nil
}

// VerifyEmail consumes the token and marks its owner verified atomically.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		userID, err := s.tokens.Consume(ctx, tx.Tokens(), domain.PurposeVerifyEmail, strings.TrimSpace(rawToken))
		if err != nil {
			return err
		}
		if err := tx.Users().MarkEmailVerified(ctx, userID, s.now()); err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
		return nil
	})
}

// ResendVerification replaces outstanding verification tokens of an
// unverified account. The outcome is the same whether or not the account
// exists.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, ok, err := s.lookupForEmail(ctx, email)
	if err != nil || !ok || user.EmailVerified {
		return err
	}

	var rawToken string
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := s.tokens.RevokeAll(ctx, tx.Tokens(), domain.PurposeVerifyEmail, user.ID); err != nil {
			return err
		}
		raw, _, err := s.tokens.Issue(ctx, tx.Tokens(), domain.PurposeVerifyEmail, user.ID, s.cfg.VerificationTTL)
		rawToken = raw
		return err
	})
	if err != nil {
		s.logger.Warn("failed to reissue verification token", "user_id", user.ID, "error", err)
		return nil
	}

	s.sendVerification(ctx, user, rawToken)
	return nil
}

// ForgotPassword issues a reset token for an existing account. The outcome
// is the same whether or not the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, ok, err := s.lookupForEmail(ctx, email)
	if err != nil || !ok {
		return err
	}

	var rawToken string
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := s.tokens.RevokeAll(ctx, tx.Tokens(), domain.PurposePasswordReset, user.ID); err != nil {
			return err
		}
		raw, _, err := s.tokens.Issue(ctx, tx.Tokens(), domain.PurposePasswordReset, user.ID, s.cfg.ResetTTL)
		rawToken = raw
		return err
	})
	if err != nil {
		s.logger.Warn("failed to issue password reset token", "user_id", user.ID, "error", err)
		return nil
	}

	link := s.link("/reset-password", rawToken)
	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword consumes the reset token, replaces the password hash and
// ends every session of the user in one transaction.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := validation.Password("new_password", newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		userID, err := s.tokens.Consume(ctx, tx.Tokens(), domain.PurposePasswordReset, strings.TrimSpace(rawToken))
		if err != nil {
			return err
		}
		if err := tx.Users().UpdatePassword(ctx, userID, passwordHash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return s.tokens.RevokeAll(ctx, tx.Tokens(), domain.PurposeSession, userID)
	})
}

// Session is a freshly issued session secret.
type Session struct {
	UserID    uuid.UUID
	Secret    string
	ExpiresAt time.Time
}

// Login accepts a username or an email. Unknown accounts and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.Users().GetByEmail(ctx, normalizeEmail(login))
	} else {
		user, err = s.store.Users().GetByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	raw, t, err := s.tokens.Issue(ctx, s.store.Tokens(), domain.PurposeSession, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{UserID: user.ID, Secret: raw, ExpiresAt: t.ExpiresAt}, nil
}

// Authenticate exchanges a session secret for its user.
func (s *Service) Authenticate(ctx context.Context, secret string) (uuid.UUID, error) {
	if secret == "" {
		return uuid.Nil, domain.ErrUnauthorized
	}

	userID, err := s.tokens.Validate(ctx, s.store.Tokens(), domain.PurposeSession, secret)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			logging.FromContext(ctx, s.logger).Error("failed to validate session", "error", err)
		}
		return uuid.Nil, domain.ErrUnauthorized
	}

	return userID, nil
}

// Logout deletes the session behind secret.
func (s *Service) Logout(ctx context.Context, secret string) error {
	return s.tokens.Revoke(ctx, s.store.Tokens(), domain.PurposeSession, secret)
}

// lookupForEmail validates the address and finds its account. A missing
// account is reported through ok, never as an error.
func (s *Service) lookupForEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	email = normalizeEmail(email)
	if err := validation.Struct(struct {
		Email string `json:"email" validate:"required,max=254,email_address"`
	}{email}); err != nil {
		return nil, false, err
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to get user by email", "error", err)
		}
		return nil, false, nil
	}
	return user, true, nil
}

func (s *Service) rehash(ctx context.Context, userID uuid.UUID, password string) {
	logger := logging.FromContext(ctx, s.logger)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		logger.Warn("failed to rehash legacy password", "user_id", userID, "error", err)
		return
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, hash); err != nil {
		logger.Warn("failed to store rehashed password", "user_id", userID, "error", err)
	}
}

func (s *Service) sendVerification(ctx context.Context, user *domain.User, rawToken string) {
	link := s.link("/verify-email", rawToken)
	if err := s.notifier.SendVerificationEmail(ctx, user.Email, link); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to send verification email", "user_id", user.ID, "error", err)
	}
}

func (s *Service) link(path, rawToken string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + path + "?token=" + url.QueryEscape(rawToken)
}
