package handler

import (
	"regioniq/internal/observations"
	dErrors "regioniq/pkg/domain-errors"
)

// DefaultLimit applies when a request does not set limit.
const DefaultLimit = 50_000

// QueryRequest is the HTTP request body for POST /observations/query.
type QueryRequest struct {
	Query observations.Query `json:"query"`
	// Response selects the output format; only records exists and the
	// field is accepted for forward compatibility.
	Response map[string]any `json:"response,omitempty"`
	Limit    *int           `json:"limit,omitempty"`
	Cursor   *int           `json:"cursor,omitempty"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *QueryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
			WithDetails(map[string]any{"issues": []string{"request body is required"}})
	}
	if r.Query == nil {
		return dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
			WithDetails(map[string]any{"issues": []string{"query is required"}})
	}
	if r.Cursor != nil && *r.Cursor < 0 {
		return dErrors.New(dErrors.CodeValidation, "Invalid request payload.").
			WithDetails(map[string]any{"issues": []string{"cursor must be zero or greater"}})
	}
	if r.Limit == nil {
		limit := DefaultLimit
		r.Limit = &limit
	}
	return r.Query.Validate()
}
