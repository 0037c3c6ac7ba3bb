// Package identity verifies bearer tokens and resolves them to a user.
package identity

import (
	"context"
	"strings"

	dErrors "regioniq/pkg/domain-errors"
)

// Identity is a verified caller.
type Identity struct {
	UserID string
	// RawToken is forwarded to the store so row-level security applies.
	RawToken string
}

// Verifier resolves a bearer token to an identity. Errors are domain errors
// carrying one of the auth codes.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Missing bearer token")
	}
	return strings.TrimSpace(token), nil
}

// Unconfigured rejects every token. It stands in when no verification
// backend is configured.
type Unconfigured struct{}

func (Unconfigured) Verify(context.Context, string) (Identity, error) {
	return Identity{}, dErrors.New(dErrors.CodeAuthConfigMissing,
		"Unable to verify authentication credentials (missing SUPABASE_URL or SUPABASE_ANON_KEY on the Data API).")
}

func invalidToken(message string, details map[string]any) error {
	return dErrors.New(dErrors.CodeInvalidToken, message).WithDetails(details)
}

func unavailable(err error) error {
	return dErrors.Wrap(err, dErrors.CodeAuthUnavailable,
		"Unable to verify authentication credentials (auth server unreachable).").
		WithDetails(map[string]any{"reason": err.Error()})
}
