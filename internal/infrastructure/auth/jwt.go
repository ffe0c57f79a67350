// Package auth issues and verifies the bearer tokens POS terminals present.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/erp/checkout/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrMissingTerminalID = errors.New("missing terminal_id in claims")
)

// Claims identify the terminal a token was issued to
type Claims struct {
	jwt.RegisteredClaims
	TerminalID string `json:"terminal_id"`
}

// TerminalTokenService signs and validates HS256 terminal tokens
type TerminalTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTerminalTokenService creates a token service from cfg
func NewTerminalTokenService(cfg config.AuthConfig) *TerminalTokenService {
	return &TerminalTokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue signs a token for terminalID and returns it with its expiry
func (s *TerminalTokenService) Issue(terminalID string) (string, time.Time, error) {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return "", time.Time{}, ErrMissingTerminalID
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   terminalID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TerminalID: terminalID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, issuer and validity window and returns the claims
func (s *TerminalTokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TerminalID == "" {
		return nil, ErrMissingTerminalID
	}
	return claims, nil
}
