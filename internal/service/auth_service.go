package service

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"veenoe/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityVerifier turns a bearer credential into a verified user.
// The transport layer depends only on this interface so the identity
// provider can be swapped without touching handlers.
type IdentityVerifier interface {
	VerifyToken(tokenString string) (*model.AuthenticatedUser, error)
}

// AuthService verifies HS256 user JWTs.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// VerifyToken validates a user JWT and extracts the caller identity.
// The user id comes from the subject claim and nowhere else.
func (s *AuthService) VerifyToken(tokenString string) (*model.AuthenticatedUser, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &model.AuthenticatedUser{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
	}, nil
}
