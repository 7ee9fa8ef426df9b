// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/weblogin/sdk/id"
	"github.com/hashicorp/weblogin/sdk/sealbox"
	"golang.org/x/oauth2"
)

// DefaultAttemptTTL is the default wall-clock lifetime of a login attempt.
// An attempt is also single-use: its cookie is deleted the first time a
// callback consumes it, successfully or not.
const DefaultAttemptTTL = 10 * time.Minute

// attempt is the per-login-attempt integrity material minted at redirect
// time and verified exactly once at callback time. It only ever lives
// client-side, sealed inside a short-lived cookie scoped to the callback
// path; the engine keeps nothing in server memory.
type attempt struct {
	State     string    `json:"state"`
	Nonce     string    `json:"nonce,omitempty"`
	Verifier  string    `json:"code_verifier,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func attemptCookieName(provider string) string {
	return "weblogin_attempt_" + provider
}

// createChecks mints fresh integrity material for each enabled check, seals
// it into the attempt cookie, and returns the query parameters that belong
// on the authorization redirect URL. The PKCE verifier never appears in the
// returned parameters, only its derived challenge.
func (h *handler) createChecks(w http.ResponseWriter, r *http.Request, c *Config) (url.Values, error) {
	params := url.Values{}
	if len(c.Checks) == 0 {
		return params, nil
	}

	a := attempt{
		ExpiresAt: h.opts.withNowFunc().Add(h.opts.withAttemptTTL),
	}
	if c.hasCheck(CheckState) {
		state, err := id.Random(id.DefaultNumBytes)
		if err != nil {
			return nil, fmt.Errorf("unable to generate state: %w", err)
		}
		a.State = state
		params.Set("state", state)
	}
	if c.hasCheck(CheckNonce) {
		nonce, err := id.Random(id.DefaultNumBytes)
		if err != nil {
			return nil, fmt.Errorf("unable to generate nonce: %w", err)
		}
		a.Nonce = nonce
		params.Set("nonce", nonce)
	}
	if c.hasCheck(CheckPKCE) {
		a.Verifier = oauth2.GenerateVerifier()
		switch c.CodeChallengeMethod {
		case "plain":
			params.Set("code_challenge", a.Verifier)
		default:
			params.Set("code_challenge", oauth2.S256ChallengeFromVerifier(a.Verifier))
		}
		params.Set("code_challenge_method", c.CodeChallengeMethod)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal login attempt: %w", err)
	}
	sealed, err := sealbox.Seal(h.cookiePassword(c), payload)
	if err != nil {
		return nil, fmt.Errorf("unable to seal login attempt: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     attemptCookieName(c.Provider),
		Value:    sealed,
		Path:     r.URL.Path,
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.opts.withAttemptTTL.Seconds()),
	})
	return params, nil
}

// useChecks restores and verifies the attempt minted for this flow. The
// attempt cookie is deleted before anything is verified, so a given attempt
// can never be consumed twice: replaying a callback fails here, ahead of any
// token exchange. All failures are ErrIntegrityFailure.
func (h *handler) useChecks(w http.ResponseWriter, r *http.Request, c *Config) (*attempt, error) {
	if len(c.Checks) == 0 {
		return &attempt{}, nil
	}

	cookie, err := r.Cookie(attemptCookieName(c.Provider))
	if err != nil {
		return nil, fmt.Errorf("no login attempt in progress: %w", ErrIntegrityFailure)
	}
	// single use: gone after this request no matter what
	http.SetCookie(w, &http.Cookie{
		Name:   attemptCookieName(c.Provider),
		Value:  "",
		Path:   r.URL.Path,
		MaxAge: -1,
	})

	payload, err := sealbox.Open(h.cookiePassword(c), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("login attempt failed verification: %w", ErrIntegrityFailure)
	}
	var a attempt
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("login attempt is malformed: %w", ErrIntegrityFailure)
	}
	if h.opts.withNowFunc().After(a.ExpiresAt) {
		return nil, fmt.Errorf("login attempt is expired: %w", ErrIntegrityFailure)
	}
	if c.hasCheck(CheckState) {
		reqState := r.URL.Query().Get("state")
		if subtle.ConstantTimeCompare([]byte(reqState), []byte(a.State)) != 1 {
			return nil, fmt.Errorf("state does not match login attempt: %w", ErrIntegrityFailure)
		}
	}
	return &a, nil
}

// cookiePassword is the password the attempt cookie is sealed under. Unless
// an explicit one was configured, the client secret serves: both ends of the
// round trip are this server.
func (h *handler) cookiePassword(c *Config) string {
	if h.opts.withCookiePassword != "" {
		return h.opts.withCookiePassword
	}
	return string(c.ClientSecret)
}
