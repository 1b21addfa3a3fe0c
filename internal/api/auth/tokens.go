package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coursehub/campus-api/config"
	"github.com/coursehub/campus-api/internal/api"
	"github.com/coursehub/campus-api/internal/models"
)

// TokenIssuer mints and verifies stateless HMAC-signed access tokens.
// Validity is established purely by signature and expiry; no server-side
// session state exists.
type TokenIssuer struct {
	secretKey []byte
	issuer    string
	audience  string
	ttl       time.Duration
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		secretKey: []byte(cfg.SecretKey),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		ttl:       ttl,
	}
}

// Issue signs a token binding the user's id (subject), role and name.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(user.Role),
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims. Any
// failure (bad signature, expiry, wrong issuer or audience) reads as
// ErrUnauthenticated.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", api.ErrUnauthenticated)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token marked invalid: %w", api.ErrUnauthenticated)
	}

	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("token expired: %w", api.ErrUnauthenticated)
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return nil, fmt.Errorf("token issuer mismatch: %w", api.ErrUnauthenticated)
	}
	if !api.VerifyAudience(claims.Audience, t.audience) {
		return nil, fmt.Errorf("token audience mismatch: %w", api.ErrUnauthenticated)
	}

	return claims, nil
}

// UserID extracts the numeric subject from verified claims.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed subject claim: %w", api.ErrUnauthenticated)
	}
	return id, nil
}
