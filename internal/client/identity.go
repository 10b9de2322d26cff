package client

import (
	"context"
	"net/http"

	"city-tours/internal/models"
	"city-tours/internal/session"

	"github.com/rs/zerolog/log"
)

var _ session.Identity = (*Client)(nil)

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates an account and stores its session
func (c *Client) SignUp(ctx context.Context, email, password string, attrs models.UserAttributes) (*models.AuthUser, error) {
	var sess models.AuthSession
	req := signUpRequest{Email: email, Password: password, Name: attrs.Name, AvatarURL: attrs.AvatarURL}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, false, &sess); err != nil {
		return nil, err
	}
	if err := c.keep(&sess); err != nil {
		return nil, err
	}
	return sess.User, nil
}

// SignInWithPassword signs in and stores the session
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthUser, error) {
	var sess models.AuthSession
	if err := c.do(ctx, http.MethodPost, "/auth/token", credentialsRequest{Email: email, Password: password}, false, &sess); err != nil {
		return nil, err
	}
	if err := c.keep(&sess); err != nil {
		return nil, err
	}
	return sess.User, nil
}

// SignOut revokes the stored token and forgets it. A token the server no longer accepts counts as signed out.
func (c *Client) SignOut(ctx context.Context) error {
	stored, err := c.store.Load()
	if err != nil {
		return models.NewInternalError("failed to load session", err)
	}
	if stored == nil {
		return nil
	}

	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, true, nil); err != nil {
		if models.KindOf(err) != models.KindUnauthorized {
			return err
		}
	}
	if err := c.store.Clear(); err != nil {
		return models.NewInternalError("failed to clear session", err)
	}
	return nil
}

// GetCurrentUser returns the user of the stored session, or nil when there is none.
// No request is made without a stored, unexpired token.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.AuthUser, error) {
	stored, err := c.store.Load()
	if err != nil {
		return nil, models.NewInternalError("failed to load session", err)
	}
	if stored == nil {
		return nil, nil
	}
	if !stored.ExpiresAt.IsZero() && !c.now().Before(stored.ExpiresAt) {
		log.Debug().Msg("Stored session expired")
		if err := c.store.Clear(); err != nil {
			return nil, models.NewInternalError("failed to clear session", err)
		}
		return nil, nil
	}

	var user models.AuthUser
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, true, &user); err != nil {
		if models.KindOf(err) == models.KindUnauthorized {
			return nil, nil
		}
		return nil, err
	}

	stored.User = &user
	if err := c.store.Save(stored); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh stored user")
	}
	return &user, nil
}

// ResetPasswordForEmail asks the server to mail a reset link
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := c.do(ctx, http.MethodPost, "/auth/recover", map[string]string{"email": email}, false, &reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

// ConfirmPasswordReset sets a new password with the token from the reset mail
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/recover/confirm", body, false, nil)
}

func (c *Client) keep(sess *models.AuthSession) error {
	if sess.AccessToken == "" || sess.User == nil {
		return models.NewRemoteError("server returned an incomplete session", nil)
	}
	err := c.store.Save(&StoredSession{
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
		User:        sess.User,
	})
	if err != nil {
		return models.NewInternalError("failed to save session", err)
	}
	return nil
}
