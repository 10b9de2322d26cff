// Package identity implements account sign-up, sign-in, sign-out and password
// recovery on top of the users table and a short-lived key store.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"city-tours/internal/cache"
	"city-tours/internal/config"
	"city-tours/internal/mailer"
	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
	revokedPrefix     = "revoked:"
	resetPrefix       = "reset:"
)

// Accounts is the user table used by the provider
type Accounts interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// Provider is the server side identity collaborator
type Provider struct {
	accounts Accounts
	tokens   *Tokens
	kv       cache.Store
	mail     mailer.Mailer
	resetTTL time.Duration
	resetURL string
	now      func() time.Time
}

// NewProvider creates a new identity provider
func NewProvider(accounts Accounts, kv cache.Store, mail mailer.Mailer, cfg config.JWTConfig) *Provider {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Provider{
		accounts: accounts,
		tokens:   NewTokens(cfg.Secret, cfg.TokenTTL),
		kv:       kv,
		mail:     mail,
		resetTTL: cfg.ResetTTL,
		resetURL: cfg.ResetURL,
		now:      time.Now,
	}
}

// ValidateCredentials checks the local preconditions shared by sign-up and the session manager
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.NewValidationError("email and password are required")
	}
	return validatePassword(password)
}

// validatePassword counts characters for the minimum and bytes for the bcrypt maximum
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return models.NewValidationError("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return models.NewValidationError("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// SignUp creates an account and opens a session for it
func (p *Provider) SignUp(ctx context.Context, email, password string, attrs models.UserAttributes) (*models.AuthSession, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError("failed to hash password", err)
	}

	account := &models.Account{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Name:         optional(attrs.Name),
		AvatarURL:    optional(attrs.AvatarURL),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if models.KindOf(err) == models.KindConflict {
			return nil, models.NewConflictError("user already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", account.ID).Msg("User signed up")
	return p.openSession(account)
}

// SignInWithPassword opens a session for valid credentials
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	account, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("invalid login credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("invalid login credentials")
	}

	return p.openSession(account)
}

// SignOut revokes the token until it would have expired anyway
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return models.NewUnauthorizedError("invalid token")
	}

	ttl := claims.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	if err := p.kv.Set(ctx, revokedPrefix+claims.ID, claims.UserID, ttl); err != nil {
		return models.NewInternalError("failed to revoke token", err)
	}

	log.Info().Str("user_id", claims.UserID).Msg("User signed out")
	return nil
}

// Authenticate validates a token and returns its user id
func (p *Provider) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", models.NewUnauthorizedError("token required")
	}
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return "", models.NewUnauthorizedError("invalid token")
	}

	_, err = p.kv.Get(ctx, revokedPrefix+claims.ID)
	switch {
	case err == nil:
		return "", models.NewUnauthorizedError("token revoked")
	case !errors.Is(err, cache.ErrNotFound):
		return "", models.NewInternalError("failed to check token", err)
	}

	return claims.UserID, nil
}

// GetUser returns the user owning a valid token
func (p *Provider) GetUser(ctx context.Context, token string) (*models.AuthUser, error) {
	userID, err := p.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.GetByID(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("user no longer exists")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return account.AuthUser(), nil
}

// ResetPasswordForEmail mails a one-time reset link. Unknown addresses get the
// same answer so the endpoint cannot be used to probe for accounts.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, models.NewValidationError("email is required")
	}
	reset := &models.PasswordReset{Email: email, SentAt: p.now().UTC()}

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if models.IsNotFound(err) {
			log.Debug().Msg("Password reset requested for unknown email")
			return reset, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, models.NewInternalError("failed to generate reset token", err)
	}
	if err := p.kv.Set(ctx, resetPrefix+token, account.ID, p.resetTTL); err != nil {
		return nil, models.NewInternalError("failed to store reset token", err)
	}

	if err := p.mail.SendPasswordReset(ctx, account.Email, p.resetLink(token)); err != nil {
		return nil, models.NewRemoteError("failed to send reset email", err)
	}
	return reset, nil
}

// ConfirmPasswordReset sets a new password using a reset token; each token works once
func (p *Provider) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if token == "" {
		return models.NewValidationError("reset token is required")
	}

	userID, err := cache.Take(ctx, p.kv, resetPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return models.NewUnauthorizedError("reset token is invalid or expired")
		}
		return models.NewInternalError("failed to read reset token", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError("failed to hash password", err)
	}
	if err := p.accounts.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Password reset completed")
	return nil
}

func (p *Provider) openSession(account *models.Account) (*models.AuthSession, error) {
	token, claims, err := p.tokens.Issue(account.ID)
	if err != nil {
		return nil, models.NewInternalError("failed to generate token", err)
	}
	return &models.AuthSession{
		User:        account.AuthUser(),
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.UTC(),
	}, nil
}

func (p *Provider) resetLink(token string) string {
	u, err := url.Parse(p.resetURL)
	if err != nil || p.resetURL == "" {
		return "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
