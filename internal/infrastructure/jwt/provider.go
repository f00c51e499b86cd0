package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/edumon-sync/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields of a local API client.
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs for the local API.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.APIJWTSecret == "" {
		return nil, errors.New("jwt: API_JWT_SECRET is empty")
	}
	return &Provider{secret: []byte(cfg.APIJWTSecret), expiry: cfg.APIJWTExpiry}, nil
}

// Sign issues a token for the named client (a tray app, a script).
func (p *Provider) Sign(client string) (string, error) {
	now := time.Now()
	claims := Claims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   client,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
