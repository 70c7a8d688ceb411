package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/studeo/auth-service/internal/config"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenRevoked = errors.New("refresh token has been revoked")
)

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies the two bearer-token kinds. Access and
// refresh tokens are signed with distinct secrets so that neither secret
// can forge the other kind. Every token carries a unique jti, so two
// issuances for the same subject never collide even within the same
// second; refresh rotation relies on that.
type TokenIssuer struct {
	config *config.AuthConfig
}

func NewTokenIssuer(config *config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{config: config}
}

func (t *TokenIssuer) IssueAccessToken(userID, email string) (string, error) {
	return t.issue(&Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.config.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}, t.config.AccessTokenSecret)
}

func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return t.issue(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.config.RefreshTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}, t.config.RefreshTokenSecret)
}

func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	return t.verify(tokenString, t.config.AccessTokenSecret)
}

func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return t.verify(tokenString, t.config.RefreshTokenSecret)
}

func (t *TokenIssuer) issue(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verify checks signature and expiry together; an expired but correctly
// signed token reports ErrTokenExpired, everything else ErrTokenInvalid.
func (t *TokenIssuer) verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
