// Package auth turns bearer tokens into the caller identity the search
// engine runs under. Token issuance for real users lives in the CMS; the
// generator here serves the seeder and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "cmsearch/internal/core/context"
	"cmsearch/internal/core/id"
)

// ErrInvalidClaims is returned for well-signed tokens missing required claims.
var ErrInvalidClaims = errors.New("invalid token claims")

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "cmsearch",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string   `json:"uid"`
	OrganizationID string   `json:"org"`
	Email          string   `json:"email,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	APIKey         bool     `json:"api_key,omitempty"`
}

// TokenSpec describes the identity to embed in a generated token.
type TokenSpec struct {
	UserID         string
	OrganizationID id.ID
	Email          string
	Scopes         []string
	APIKey         bool
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken signs a token for spec.
func (s *JWTService) GenerateAccessToken(spec TokenSpec) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   spec.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:         spec.UserID,
		OrganizationID: spec.OrganizationID.String(),
		Email:          spec.Email,
		Scopes:         spec.Scopes,
		APIKey:         spec.APIKey,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates JWT and returns user context.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidClaims)
	}
	orgID, err := id.Parse(claims.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: org is not a uuid", ErrInvalidClaims)
	}
	if id.IsNil(orgID) {
		return nil, fmt.Errorf("%w: nil org", ErrInvalidClaims)
	}

	return &appctx.UserContext{
		UserID:         claims.UserID,
		OrganizationID: claims.OrganizationID,
		Email:          claims.Email,
		Scopes:         claims.Scopes,
		APIKey:         claims.APIKey,
	}, nil
}
