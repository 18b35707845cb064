package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: Client must be present on every token; a caller only
// reconciles and reads the files of its own client.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Client    string    `json:"client"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
