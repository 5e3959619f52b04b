package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/golang-jwt/jwt/v5"
)

// Credential is what login needs to know about a user.
type Credential struct {
	UserID       int64
	Name         string
	Role         actor.Role
	PasswordHash string
}

// TokenGenerator issues and reads signed identity tokens.
type TokenGenerator interface {
	GenerateAccessToken(c Credential) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ClaimReader turns a bearer token into an actor.
type ClaimReader interface {
	ReadClaims(ctx context.Context, token string) (actor.Actor, error)
}

// Claims represents JWT token claims
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
	now            func() time.Time
}
