package auth

import (
	"context"
	"log/slog"
	"net/http"

	"regioniq/internal/identity"
	"regioniq/pkg/platform/httputil"
	"regioniq/pkg/requestcontext"
)

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

// RequireAuth rejects requests without a verifiable bearer token and stores
// the caller's identity in the request context.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, err := identity.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			id, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - token rejected",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithIdentity(ctx, id.UserID, id.RawToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
