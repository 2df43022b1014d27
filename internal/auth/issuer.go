package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
)

const tokenType = "Bearer"

// HMACTokens issues and verifies HS256 access tokens signed with a shared secret.
type HMACTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var (
	_ services.TokenIssuer = (*HMACTokens)(nil)
	_ JWTVerifier          = (*HMACTokens)(nil)
)

// NewHMACTokens creates an HS256 issuer/verifier.
func NewHMACTokens(secret, issuer string, ttl time.Duration, logger *slog.Logger) (*HMACTokens, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", ttl)
	}
	return &HMACTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue signs a token for user carrying its id and root folder id.
func (t *HMACTokens) Issue(user *models.User) (*models.AuthToken, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		RootFolderID: user.FolderID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.AuthToken{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyToken validates signature, issuer and expiry.
func (t *HMACTokens) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		t.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (t *HMACTokens) Close() error { return nil }
