// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Profile is the declarative shape a provider plugs into the engine:
// endpoint URLs, defaults for every Config field the provider cares about,
// and the couple of request/response quirks that genuinely differ between
// providers. Everything else - the flow itself, integrity checks, error
// normalization - is shared engine behavior, so a provider can't drift from
// it.
type Profile struct {
	// Name identifies the provider ("github", "google", ...).
	Name string

	// Defaults seed the bottom of the per-request Config merge chain.
	Defaults Config

	// EmailScope is the scope appended when Config.EmailRequired is set and
	// the scope isn't already requested.
	EmailScope string

	// DecorateUserinfo optionally mutates the userinfo request before it's
	// sent, for providers that demand more than a bearer credential (Twitch's
	// Client-ID header, Battle.net's User-Agent).
	DecorateUserinfo func(req *http.Request, c *Config, tokens TokenResponse)

	// UnwrapUser optionally extracts the user object from a provider response
	// that nests it (Twitch returns {"data": [user]}). Returning nil marks
	// the profile fetch as failed.
	UnwrapUser func(raw map[string]interface{}) map[string]interface{}
}

// GitHub returns the profile for GitHub's OAuth2 flow.
func GitHub() *Profile {
	return &Profile{
		Name: "github",
		Defaults: Config{
			Provider:         "github",
			AuthorizationURL: endpoints.GitHub.AuthURL,
			TokenURL:         endpoints.GitHub.TokenURL,
			UserinfoURL:      "https://api.github.com/user",
			Scopes:           []string{"user:email"},
		},
	}
}

// Google returns the profile for Google's OAuth2/OIDC flow.
func Google() *Profile {
	return &Profile{
		Name: "google",
		Defaults: Config{
			Provider:         "google",
			AuthorizationURL: endpoints.Google.AuthURL,
			TokenURL:         endpoints.Google.TokenURL,
			UserinfoURL:      "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:           []string{"openid", "email", "profile"},
		},
	}
}

// Twitch returns the profile for Twitch's OAuth2 flow. Twitch's userinfo
// endpoint requires the Client-ID header alongside the bearer token and
// wraps the user object in a data array.
func Twitch() *Profile {
	return &Profile{
		Name: "twitch",
		Defaults: Config{
			Provider:         "twitch",
			AuthorizationURL: endpoints.Twitch.AuthURL,
			TokenURL:         endpoints.Twitch.TokenURL,
			UserinfoURL:      "https://api.twitch.tv/helix/users",
		},
		EmailScope: "user:read:email",
		DecorateUserinfo: func(req *http.Request, c *Config, _ TokenResponse) {
			req.Header.Set("Client-ID", c.ClientID)
		},
		UnwrapUser: func(raw map[string]interface{}) map[string]interface{} {
			data, ok := raw["data"].([]interface{})
			if !ok || len(data) == 0 {
				return nil
			}
			user, ok := data[0].(map[string]interface{})
			if !ok {
				return nil
			}
			return user
		},
	}
}

// BattleNet returns the profile for Battle.net's OIDC flow. Battle.net wants
// client credentials as Basic auth on the token exchange and a User-Agent on
// the userinfo call. Use WithRegionCN for the China region, which runs on
// separate hosts.
func BattleNet(opt ...Option) *Profile {
	opts := getBattleNetOpts(opt...)
	defaults := Config{
		Provider:         "battledotnet",
		AuthorizationURL: "https://oauth.battle.net/authorize",
		TokenURL:         "https://oauth.battle.net/token",
		UserinfoURL:      "https://oauth.battle.net/userinfo",
		Scopes:           []string{"openid"},
		AuthStyle:        oauth2.AuthStyleInHeader,
	}
	if opts.withRegionCN {
		defaults.AuthorizationURL = "https://oauth.battlenet.com.cn/authorize"
		defaults.TokenURL = "https://oauth.battlenet.com.cn/token"
		defaults.UserinfoURL = "https://oauth.battlenet.com.cn/userinfo"
	}
	return &Profile{
		Name:     "battledotnet",
		Defaults: defaults,
		DecorateUserinfo: func(req *http.Request, c *Config, _ TokenResponse) {
			req.Header.Set("User-Agent", "Battledotnet-OAuth-"+c.ClientID)
		},
	}
}

// OIDC returns a generic endpoint-configured OIDC profile. All endpoint URLs
// must come from the Config or OAUTH_<NAME>_* environment variables. State,
// PKCE and nonce checks are all enabled by default.
//
// See DiscoverProfile to fill the endpoints from the issuer's discovery
// document instead.
func OIDC(name string) *Profile {
	return &Profile{
		Name: name,
		Defaults: Config{
			Provider: name,
			Scopes:   []string{"openid"},
			Checks:   []Check{CheckState, CheckPKCE, CheckNonce},
		},
	}
}

// battleNetOptions is the set of available options for BattleNet
type battleNetOptions struct {
	withRegionCN bool
}

func getBattleNetOpts(opt ...Option) battleNetOptions {
	opts := battleNetOptions{}
	ApplyOpts(&opts, opt...)
	return opts
}

// WithRegionCN selects Battle.net's China-region endpoints.
func WithRegionCN() Option {
	return func(o interface{}) {
		if o, ok := o.(*battleNetOptions); ok {
			o.withRegionCN = true
		}
	}
}
