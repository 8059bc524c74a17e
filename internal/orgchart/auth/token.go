package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued by GenerateToken.
const DefaultTokenTTL = 24 * time.Hour

// GenerateToken signs an HS256 token for subject that expires after ttl.
// A non-positive ttl falls back to DefaultTokenTTL.
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if secret == "" {
		return "", fmt.Errorf("secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
