package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims carried by user bearer tokens. The
// subject claim is the user id.
type UserClaims struct {
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// AuthenticatedUser is the verified identity of the caller, derived
// from a validated token. Never construct one from request fields.
type AuthenticatedUser struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}
