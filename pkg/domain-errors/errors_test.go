package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	base := New(CodeQueryTooLarge, "too big")
	wrapped := fmt.Errorf("handler: %w", base)

	assert.True(t, HasCode(base, CodeQueryTooLarge))
	assert.True(t, HasCode(wrapped, CodeQueryTooLarge))
	assert.False(t, HasCode(wrapped, CodeUnboundedQuery))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeDataUnavailable, "Failed to query underlying data store.")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetailsCopies(t *testing.T) {
	base := New(CodeQueryTooLarge, "too big")
	detailed := base.WithDetails(map[string]any{"max_records": 250000})

	require.NotNil(t, detailed.Details)
	assert.Nil(t, base.Details)
	assert.Equal(t, 250000, detailed.Details["max_records"])
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:           http.StatusBadRequest,
		CodeQueryTooLarge:        http.StatusBadRequest,
		CodeUnboundedQuery:       http.StatusBadRequest,
		CodeUnauthorized:         http.StatusUnauthorized,
		CodeAuthConfigMissing:    http.StatusUnauthorized,
		CodeAuthUnavailable:      http.StatusUnauthorized,
		CodeInvalidToken:         http.StatusUnauthorized,
		CodeRateLimited:          http.StatusTooManyRequests,
		CodeDataAPIMisconfigured: http.StatusInternalServerError,
		CodeDataUnavailable:      http.StatusInternalServerError,
		CodeInternal:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
