package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks asymmetrically signed tokens against a remote JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier from a JWKS URL without discovery. An
// empty audience disables the audience check.
func NewOIDCVerifier(ctx context.Context, jwksURL, issuerURL, audience string) (*OIDCVerifier, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	cfg := &oidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
		SkipIssuerCheck:   issuerURL == "",
	}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuerURL, keySet, cfg)}, nil
}

// Verify validates the token and returns its subject.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		if isNetworkError(err) {
			return Identity{}, unavailable(err)
		}
		return Identity{}, invalidToken("JWT verification failed", map[string]any{"reason": err.Error()})
	}
	if idToken.Subject == "" {
		return Identity{}, invalidToken("Missing sub claim", map[string]any{})
	}
	return Identity{UserID: idToken.Subject, RawToken: token}, nil
}

func isNetworkError(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}
