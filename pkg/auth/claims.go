package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims mirrors the access tokens issued by the hosted auth
// provider. The subject is the user's uuid.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// AccessTokenPayload captures the data available when minting a token locally
// (tests and the dev seed tool).
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
