package testutil

import (
	"net/http"
	"time"

	"regioniq/pkg/requestcontext"
)

// WithIdentity attaches an authenticated caller to the request context.
// This simulates what the auth middleware does after a token verifies.
func WithIdentity(req *http.Request, userID, token string) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), userID, token))
}

// WithTime pins the request time used for response timestamps.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
