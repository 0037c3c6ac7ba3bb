package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier checks HS256 tokens signed with the project's JWT secret
// locally, without a round trip to the auth server.
type JWTVerifier struct {
	secret   []byte
	audience string
}

// NewJWTVerifier creates an HS256 verifier. An empty audience skips the
// audience check.
func NewJWTVerifier(secret, audience string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &JWTVerifier{secret: []byte(secret), audience: audience}, nil
}

// Verify validates signature, expiry and audience and returns the subject.
func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, invalidToken("JWT verification failed", map[string]any{"reason": err.Error()})
	}
	if claims.Subject == "" {
		return Identity{}, invalidToken("Missing sub claim", map[string]any{})
	}
	return Identity{UserID: claims.Subject, RawToken: token}, nil
}
