package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type CredentialRepository interface {
	// GetCredential returns internal.ErrUserNotFound for unknown usernames.
	GetCredential(ctx context.Context, username string) (*Credential, error)
}

type Service struct {
	repo           CredentialRepository
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(repo CredentialRepository, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		AccessTokenTTL: ttl,
		now:            time.Now,
	}
}

// Authenticate checks the password and issues a token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return TokenResponse{}, err
	}

	cred, err := s.repo.GetCredential(ctx, dto.Username)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			s.logger.Warn("login rejected: unknown username", "username", dto.Username)
			return TokenResponse{}, errors.ErrInvalidCredential
		}
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected: wrong password", "user_id", cred.UserID)
		return TokenResponse{}, errors.ErrInvalidCredential
	}

	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(*cred)
	if err != nil {
		return TokenResponse{}, errors.NewInternalError("failed to sign token", err)
	}

	s.logger.Info("login succeeded", "user_id", cred.UserID, "role", cred.Role)
	return TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    cred.UserID,
		Role:      cred.Role,
		Name:      cred.Name,
	}, nil
}

// ReadClaims resolves a token into the actor it identifies. Every failure,
// including an unknown role claim, is InvalidCredential.
func (s *Service) ReadClaims(ctx context.Context, token string) (actor.Actor, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return actor.Actor{}, err
	}
	role, err := actor.ParseRole(claims.Role)
	if err != nil {
		return actor.Actor{}, errors.ErrInvalidCredential.WithCause(err)
	}
	a := actor.Actor{UserID: claims.UserID, Role: role}
	if !a.Valid() {
		return actor.Actor{}, errors.ErrInvalidCredential
	}
	return a, nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(c Credential) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		UserID: c.UserID,
		Role:   string(c.Role),
		Name:   c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(c.UserID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrInvalidCredential.WithMessage("token expired")
		}
		return nil, errors.ErrInvalidCredential.WithCause(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidCredential
}
