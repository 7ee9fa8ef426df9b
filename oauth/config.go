// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Check names one of the flow integrity checks the engine can apply to a
// login attempt.
type Check string

const (
	// CheckState round-trips an opaque anti-CSRF token through the provider
	// redirect and requires the callback to echo it back unchanged.
	CheckState Check = "state"

	// CheckPKCE sends a code_challenge on the redirect and the matching
	// code_verifier with the token exchange.
	CheckPKCE Check = "pkce"

	// CheckNonce binds the provider's id_token to this login attempt via the
	// nonce claim.
	CheckNonce Check = "nonce"
)

// Config describes one provider's authorization code flow. A Config is
// resolved per inbound request by merging caller-supplied fields over
// process environment configuration over the Profile's defaults; across that
// chain the first source to set a field wins.
type Config struct {
	// Provider is the provider name. It scopes the environment variables the
	// engine reads (OAUTH_<PROVIDER>_CLIENT_ID, ...) and the login attempt
	// cookie. Normally supplied by the Profile.
	Provider string

	// ClientID is the relying party id. Required.
	ClientID string

	// ClientSecret is the relying party secret. Required.
	ClientSecret ClientSecret

	// AuthorizationURL is the provider's authorization endpoint. Required.
	AuthorizationURL string

	// TokenURL is the provider's token endpoint. Required.
	TokenURL string

	// UserinfoURL is the provider's user-info endpoint. Required.
	UserinfoURL string

	// RedirectURL is the callback URL registered with the provider. When
	// empty the engine derives it from the inbound request, so the same
	// handler works across environments without per-host configuration.
	RedirectURL string

	// Scopes to request of the provider.
	Scopes []string

	// ScopeSeparator joins Scopes on the authorization URL. Defaults to " ".
	ScopeSeparator string

	// ResponseType for the authorization request. Defaults to "code".
	ResponseType string

	// GrantType for the token exchange. Defaults to "authorization_code".
	GrantType string

	// CodeChallengeMethod is the PKCE challenge derivation method, "S256" or
	// "plain". Defaults to "S256".
	CodeChallengeMethod string

	// AuthStyle selects how client credentials are presented to the token
	// endpoint: oauth2.AuthStyleInParams (form body, the default) or
	// oauth2.AuthStyleInHeader (HTTP Basic auth).
	AuthStyle oauth2.AuthStyle

	// Checks is the set of integrity checks enabled for this provider.
	// Defaults to {CheckState}.
	Checks []Check

	// AuthorizationParams are extra query parameters appended verbatim to the
	// authorization URL (audience, claims, prompt, ...).
	AuthorizationParams url.Values

	// EmailRequired asks the provider for the user's email by appending the
	// Profile's email scope when it's not already requested.
	EmailRequired bool
}

// hasCheck reports whether check c is enabled.
func (c *Config) hasCheck(check Check) bool {
	for _, cc := range c.Checks {
		if cc == check {
			return true
		}
	}
	return false
}

// merge fills c's unset fields from overlay; fields c already carries win.
func (c *Config) merge(overlay *Config) {
	if overlay == nil {
		return
	}
	if c.Provider == "" {
		c.Provider = overlay.Provider
	}
	if c.ClientID == "" {
		c.ClientID = overlay.ClientID
	}
	if c.ClientSecret == "" {
		c.ClientSecret = overlay.ClientSecret
	}
	if c.AuthorizationURL == "" {
		c.AuthorizationURL = overlay.AuthorizationURL
	}
	if c.TokenURL == "" {
		c.TokenURL = overlay.TokenURL
	}
	if c.UserinfoURL == "" {
		c.UserinfoURL = overlay.UserinfoURL
	}
	if c.RedirectURL == "" {
		c.RedirectURL = overlay.RedirectURL
	}
	if c.Scopes == nil {
		c.Scopes = overlay.Scopes
	}
	if c.ScopeSeparator == "" {
		c.ScopeSeparator = overlay.ScopeSeparator
	}
	if c.ResponseType == "" {
		c.ResponseType = overlay.ResponseType
	}
	if c.GrantType == "" {
		c.GrantType = overlay.GrantType
	}
	if c.CodeChallengeMethod == "" {
		c.CodeChallengeMethod = overlay.CodeChallengeMethod
	}
	if c.AuthStyle == oauth2.AuthStyleAutoDetect {
		c.AuthStyle = overlay.AuthStyle
	}
	if c.Checks == nil {
		c.Checks = overlay.Checks
	}
	if c.AuthorizationParams == nil {
		c.AuthorizationParams = overlay.AuthorizationParams
	}
	if overlay.EmailRequired {
		c.EmailRequired = true
	}
}

// clone returns a shallow copy, so per-request resolution never mutates the
// caller's Config.
func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}
	cp := *c
	return &cp
}

// validate verifies the required fields of a resolved Config. Every missing
// field is reported, not just the first, so an operator can fix them all in
// one pass.
func (c *Config) validate() error {
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if c.AuthorizationURL == "" {
		result = multierror.Append(result, fmt.Errorf("authorization URL is empty: %w", ErrInvalidParameter))
	}
	if c.TokenURL == "" {
		result = multierror.Append(result, fmt.Errorf("token URL is empty: %w", ErrInvalidParameter))
	}
	if c.UserinfoURL == "" {
		result = multierror.Append(result, fmt.Errorf("userinfo URL is empty: %w", ErrInvalidParameter))
	}
	return result.ErrorOrNil()
}

// envConfig builds a Config from OAUTH_<PROVIDER>_* environment variables,
// the process-wide middle source of the merge chain.
func envConfig(provider string) *Config {
	prefix := "OAUTH_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(provider)) + "_"
	c := &Config{
		ClientID:            os.Getenv(prefix + "CLIENT_ID"),
		ClientSecret:        ClientSecret(os.Getenv(prefix + "CLIENT_SECRET")),
		AuthorizationURL:    os.Getenv(prefix + "AUTHORIZATION_URL"),
		TokenURL:            os.Getenv(prefix + "TOKEN_URL"),
		UserinfoURL:         os.Getenv(prefix + "USERINFO_URL"),
		RedirectURL:         os.Getenv(prefix + "REDIRECT_URL"),
		ResponseType:        os.Getenv(prefix + "RESPONSE_TYPE"),
		GrantType:           os.Getenv(prefix + "GRANT_TYPE"),
		CodeChallengeMethod: os.Getenv(prefix + "CODE_CHALLENGE_METHOD"),
	}
	if scopes := os.Getenv(prefix + "SCOPES"); scopes != "" {
		c.Scopes = strings.Fields(scopes)
	}
	return c
}

// fallbackDefaults are the engine-wide defaults applied last in the merge
// chain.
func fallbackDefaults() *Config {
	return &Config{
		ScopeSeparator:      " ",
		ResponseType:        "code",
		GrantType:           "authorization_code",
		CodeChallengeMethod: "S256",
		AuthStyle:           oauth2.AuthStyleInParams,
		Checks:              []Check{CheckState},
	}
}
