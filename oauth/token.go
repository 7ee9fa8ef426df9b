// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"crypto/subtle"
	"fmt"

	"gopkg.in/square/go-jose.v2/jwt"
)

// TokenResponse is the provider's token endpoint response, passed through as
// an opaque map. The engine only interprets the handful of standard fields
// the flow itself needs; everything else is the success continuation's
// business. It is never persisted beyond the request that produced it.
type TokenResponse map[string]interface{}

// AccessToken returns the access_token field, or "".
func (t TokenResponse) AccessToken() string {
	return t.str("access_token")
}

// TokenType returns the token_type field, defaulting to "Bearer".
func (t TokenResponse) TokenType() string {
	if v := t.str("token_type"); v != "" {
		return v
	}
	return "Bearer"
}

// IDToken returns the id_token field, or "".
func (t TokenResponse) IDToken() string {
	return t.str("id_token")
}

// Err returns the provider's error code and description fields when the
// token response reports a failure.
func (t TokenResponse) Err() (code, description string, ok bool) {
	code = t.str("error")
	if code == "" {
		return "", "", false
	}
	return code, t.str("error_description"), true
}

func (t TokenResponse) str(key string) string {
	v, _ := t[key].(string)
	return v
}

// UserProfile is the provider's user-info response, passed through opaque.
type UserProfile map[string]interface{}

// Result is what a successful flow hands to the SuccessFn continuation.
type Result struct {
	User   UserProfile
	Tokens TokenResponse
}

// verifyIDTokenNonce checks that the id_token's nonce claim equals the nonce
// minted for this login attempt. The claim comparison is the binding to the
// attempt cookie; verifying the token's signature against the provider's key
// set is a provider-trust concern outside this engine (the token arrived
// over the engine's own TLS connection to the token endpoint).
func verifyIDTokenNonce(idToken, nonce string) error {
	tok, err := jwt.ParseSigned(idToken)
	if err != nil {
		return fmt.Errorf("unable to parse id_token: %w", err)
	}
	var claims struct {
		Nonce string `json:"nonce"`
	}
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return fmt.Errorf("unable to read id_token claims: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return fmt.Errorf("id_token nonce does not match login attempt: %w", ErrIntegrityFailure)
	}
	return nil
}
