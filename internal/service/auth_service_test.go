package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veenoe/internal/model"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims *model.UserClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifyToken(t *testing.T) {
	svc := NewAuthService(testSecret)

	tokenString := mintToken(t, testSecret, &model.UserClaims{
		Email:     "ada@example.com",
		SessionID: "sess_1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	user, err := svc.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.UserID != "user_42" {
		t.Errorf("userId = %q, want user_42", user.UserID)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.SessionID != "sess_1" {
		t.Errorf("sessionId = %q", user.SessionID)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := NewAuthService(testSecret)

	tokenString := mintToken(t, testSecret, &model.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := svc.VerifyToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenWrongSignature(t *testing.T) {
	svc := NewAuthService(testSecret)

	tokenString := mintToken(t, "other-secret", &model.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_42"},
	})

	if _, err := svc.VerifyToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	svc := NewAuthService(testSecret)

	tokenString := mintToken(t, testSecret, &model.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := svc.VerifyToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc := NewAuthService(testSecret)

	if _, err := svc.VerifyToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
