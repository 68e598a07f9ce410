package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of the API's bearer token that the client reads.
// The signature is never checked on the client.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id,omitempty"`
}

// tokenExpired reports whether token is a JWT whose exp lies before now.
// Opaque (non-JWT) tokens never expire from the client's point of view.
func tokenExpired(token string, now time.Time) bool {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
