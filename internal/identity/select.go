package identity

import (
	"context"
	"strings"
)

// Settings names the verification backends available to the process.
type Settings struct {
	SupabaseURL  string
	AnonKey      string
	JWTSecret    string
	JWKSURL      string
	IssuerURL    string
	Audience     string
	Introspector []IntrospectorOption
}

// Select picks the strongest configured backend: JWKS, then the shared
// HS256 secret, then introspection against the auth server.
func Select(ctx context.Context, s Settings) (Verifier, error) {
	if jwks := strings.TrimSpace(s.JWKSURL); jwks != "" {
		return NewOIDCVerifier(ctx, jwks, strings.TrimSpace(s.IssuerURL), s.Audience)
	}
	if secret := strings.TrimSpace(s.JWTSecret); secret != "" {
		return NewJWTVerifier(secret, s.Audience)
	}
	return NewIntrospector(s.SupabaseURL, s.AnonKey, s.Introspector...), nil
}
