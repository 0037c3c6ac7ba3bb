package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	dErrors "regioniq/pkg/domain-errors"
)

const defaultIntrospectTimeout = 8 * time.Second

// Introspector asks the Supabase auth server who a token belongs to. It
// needs no signing keys, so it works even when the project publishes an
// empty JWKS.
type Introspector struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// IntrospectorOption configures an Introspector.
type IntrospectorOption func(*Introspector)

// WithIntrospectHTTPClient replaces the HTTP client.
func WithIntrospectHTTPClient(c *http.Client) IntrospectorOption {
	return func(i *Introspector) {
		if c != nil {
			i.httpClient = c
		}
	}
}

// NewIntrospector builds an introspector for a Supabase project. A missing
// URL or key yields a verifier that reports AUTH_CONFIG_MISSING.
func NewIntrospector(baseURL, anonKey string, opts ...IntrospectorOption) Verifier {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	anonKey = strings.TrimSpace(anonKey)
	if baseURL == "" || anonKey == "" {
		return Unconfigured{}
	}
	i := &Introspector{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: defaultIntrospectTimeout},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Verify calls GET /auth/v1/user with the caller's token.
func (i *Introspector) Verify(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthUnavailable,
			"Unable to verify authentication credentials (Supabase auth unreachable).")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", i.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthUnavailable,
			"Unable to verify authentication credentials (Supabase auth unreachable).").
			WithDetails(map[string]any{"reason": fmt.Sprintf("%T", err)})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, invalidToken("JWT verification failed", map[string]any{"status": resp.StatusCode})
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		return Identity{}, invalidToken("Missing user id from introspection.", map[string]any{"payload_keys": nil})
	}

	userID := introspectedUserID(payload)
	if userID == "" {
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return Identity{}, invalidToken("Missing user id from introspection.", map[string]any{"payload_keys": keys})
	}
	return Identity{UserID: userID, RawToken: token}, nil
}

// introspectedUserID reads the user id from either {"user": {...}} or a
// top-level user object, preferring id over sub.
func introspectedUserID(payload map[string]any) string {
	user := payload
	if nested, ok := payload["user"].(map[string]any); ok {
		user = nested
	}
	for _, key := range []string{"id", "sub"} {
		if v, ok := user[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
