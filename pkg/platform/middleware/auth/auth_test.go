package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regioniq/internal/identity"
	dErrors "regioniq/pkg/domain-errors"
	"regioniq/pkg/requestcontext"
)

type stubVerifier struct {
	id  identity.Identity
	err error
	got string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	s.got = token
	return s.id, s.err
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seenUser, seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = requestcontext.UserID(r.Context())
		seenToken = requestcontext.Token(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token passes identity on", func(t *testing.T) {
		v := &stubVerifier{id: identity.Identity{UserID: "u-1", RawToken: "tok"}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()

		RequireAuth(v, logger)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "tok", v.got)
		assert.Equal(t, "u-1", seenUser)
		assert.Equal(t, "tok", seenToken)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		v := &stubVerifier{}
		rec := httptest.NewRecorder()
		RequireAuth(v, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
		assert.Empty(t, v.got)
	})

	t.Run("verifier error is surfaced with its code", func(t *testing.T) {
		v := &stubVerifier{err: dErrors.New(dErrors.CodeAuthUnavailable, "down")}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()

		RequireAuth(v, logger)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_UNAVAILABLE", errorCode(t, rec))
	})
}
