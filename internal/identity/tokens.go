package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields carried by an access token
type Claims struct {
	UserID    string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Tokens issues and validates HS256 access tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// DefaultTokenTTL is the access token lifetime when none is configured
const DefaultTokenTTL = 7 * 24 * time.Hour

// NewTokens creates a token issuer
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a token for a user
func (t *Tokens) Issue(userID string) (string, *Claims, error) {
	now := t.now()
	c := &Claims{
		UserID:    userID,
		ID:        uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(t.ttl),
	}
	claims := jwt.MapClaims{
		"user_id": c.UserID,
		"jti":     c.ID,
		"iat":     c.IssuedAt.Unix(),
		"exp":     c.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, c, nil
}

// Parse validates a token and returns its claims
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("user_id not found in token")
	}
	jti, _ := claims["jti"].(string)

	c := &Claims{UserID: userID, ID: jti}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}
