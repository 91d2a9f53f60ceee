package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims the server embeds in the user token it issues after
// a successful join.
type Claims struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of a server-issued user token without
// verifying its signature. The signing secret never leaves the server; the
// claims serve display and sanity checks only, never authorization.
func Inspect(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
