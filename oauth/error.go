// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")

	// ErrProviderDenied - the user declined, or the provider reported an
	// authentication error on the callback.
	ErrProviderDenied = errors.New("provider denied login")

	// ErrMisconfigured - required configuration (client credentials, endpoint
	// URLs) is missing. This is a server problem, not a user one.
	ErrMisconfigured = errors.New("missing required configuration")

	// ErrIntegrityFailure - state/nonce/PKCE verification failed, or the
	// login attempt cookie was missing, expired or already consumed.
	ErrIntegrityFailure = errors.New("flow integrity check failed")

	// ErrTokenExchangeFailed - the authorization code could not be exchanged
	// for tokens.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetchFailed - the provider returned no usable user profile
	// for a valid access token.
	ErrProfileFetchFailed = errors.New("could not retrieve user")
)

// Error is the structured error the engine routes to ErrorFn continuations
// (or writes to the HTTP boundary when no ErrorFn is provided). Err is one of
// the package's sentinel errors and classifies the failure; Status is the
// HTTP status class for it (401 for user/flow failures, 500 for server-side
// ones). Response carries the raw upstream payload, when one exists, for
// operator diagnostics. Description never includes client secrets.
type Error struct {
	Err         error
	Status      int
	Description string

	// Response is the raw provider payload (token error body, callback query
	// parameters, ...) attached for diagnostics.
	Response map[string]interface{}
}

func (e *Error) Error() string {
	return e.Description
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(sentinel error, status int, description string, response map[string]interface{}) *Error {
	return &Error{
		Err:         sentinel,
		Status:      status,
		Description: description,
		Response:    response,
	}
}

// writeError renders e as a JSON error response. It's the engine's default
// boundary behavior when the caller didn't supply an ErrorFn. The raw
// provider payload is deliberately not included: it's for logs, not for end
// users.
func writeError(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":             e.Err.Error(),
		"error_description": e.Description,
	})
}
