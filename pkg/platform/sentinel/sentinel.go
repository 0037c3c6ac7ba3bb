package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store and identity adapters return
// these (wrapped with context) so services can translate them into domain errors.
//
//   - ErrNotConfigured: the adapter is missing endpoint or credentials
//   - ErrUnavailable: the remote dependency could not be reached or failed
//   - ErrRejected: the remote dependency refused the request (4xx)
//   - ErrBadResponse: the remote dependency answered with an undecodable body
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotConfigured = errors.New("not configured")
	ErrUnavailable   = errors.New("unavailable")
	ErrRejected      = errors.New("rejected")
	ErrBadResponse   = errors.New("bad response")
)
