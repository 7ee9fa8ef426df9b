// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestConfig_validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		c := &Config{
			ClientID:         "id",
			ClientSecret:     "secret",
			AuthorizationURL: "https://example.com/authorize",
			TokenURL:         "https://example.com/token",
			UserinfoURL:      "https://example.com/userinfo",
		}
		require.NoError(c.validate())
	})

	t.Run("reports-every-missing-field", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		err := (&Config{}).validate()
		require.Error(err)
		assert.ErrorIs(err, ErrInvalidParameter)
		assert.Contains(err.Error(), "client id")
		assert.Contains(err.Error(), "client secret")
		assert.Contains(err.Error(), "authorization URL")
		assert.Contains(err.Error(), "token URL")
		assert.Contains(err.Error(), "userinfo URL")
	})
}

func TestConfig_merge(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		base    Config
		overlay Config
		check   func(*assert.Assertions, Config)
	}{
		{
			name:    "unset-fields-filled",
			base:    Config{ClientID: "caller"},
			overlay: Config{ClientID: "overlay", ClientSecret: "overlay-secret", TokenURL: "https://overlay/token"},
			check: func(assert *assert.Assertions, got Config) {
				assert.Equal("caller", got.ClientID)
				assert.Equal(ClientSecret("overlay-secret"), got.ClientSecret)
				assert.Equal("https://overlay/token", got.TokenURL)
			},
		},
		{
			name:    "set-fields-win",
			base:    Config{Scopes: []string{"email"}, ScopeSeparator: "+"},
			overlay: Config{Scopes: []string{"openid"}, ScopeSeparator: " "},
			check: func(assert *assert.Assertions, got Config) {
				assert.Equal([]string{"email"}, got.Scopes)
				assert.Equal("+", got.ScopeSeparator)
			},
		},
		{
			name:    "empty-scopes-slice-wins-over-overlay",
			base:    Config{Scopes: []string{}},
			overlay: Config{Scopes: []string{"openid"}},
			check: func(assert *assert.Assertions, got Config) {
				assert.Empty(got.Scopes)
			},
		},
		{
			name:    "auth-style-filled-when-auto",
			base:    Config{},
			overlay: Config{AuthStyle: oauth2.AuthStyleInHeader},
			check: func(assert *assert.Assertions, got Config) {
				assert.Equal(oauth2.AuthStyleInHeader, got.AuthStyle)
			},
		},
		{
			name:    "email-required-sticky",
			base:    Config{},
			overlay: Config{EmailRequired: true},
			check: func(assert *assert.Assertions, got Config) {
				assert.True(got.EmailRequired)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.base
			got.merge(&tt.overlay)
			tt.check(assert.New(t), got)
		})
	}
}

func Test_envConfig(t *testing.T) {
	t.Setenv("OAUTH_GITHUB_CLIENT_ID", "env-id")
	t.Setenv("OAUTH_GITHUB_CLIENT_SECRET", "env-secret")
	t.Setenv("OAUTH_GITHUB_SCOPES", "read:user user:email")
	t.Setenv("OAUTH_MY_IDP_CLIENT_ID", "dotted-id")

	assert := assert.New(t)

	c := envConfig("github")
	assert.Equal("env-id", c.ClientID)
	assert.Equal(ClientSecret("env-secret"), c.ClientSecret)
	assert.Equal([]string{"read:user", "user:email"}, c.Scopes)

	// provider names normalize - and . to _
	assert.Equal("dotted-id", envConfig("my.idp").ClientID)
	assert.Equal("dotted-id", envConfig("my-idp").ClientID)

	// absent env reads as zero values so the merge chain skips it
	empty := envConfig("nothing-configured")
	assert.Empty(empty.ClientID)
	assert.Nil(empty.Scopes)
}

func Test_fallbackDefaults(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := fallbackDefaults()
	assert.Equal(" ", c.ScopeSeparator)
	assert.Equal("code", c.ResponseType)
	assert.Equal("authorization_code", c.GrantType)
	assert.Equal("S256", c.CodeChallengeMethod)
	assert.Equal(oauth2.AuthStyleInParams, c.AuthStyle)
	assert.Equal([]Check{CheckState}, c.Checks)
}

func TestConfig_hasCheck(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := &Config{Checks: []Check{CheckState, CheckPKCE}}
	assert.True(c.hasCheck(CheckState))
	assert.True(c.hasCheck(CheckPKCE))
	assert.False(c.hasCheck(CheckNonce))
	assert.False((&Config{}).hasCheck(CheckState))
}

func TestClientSecret_redaction(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := ClientSecret("super-secret")
	assert.Equal(RedactedClientSecret, s.String())
	got, err := json.Marshal(s)
	require.NoError(err)
	assert.Equal(`"`+RedactedClientSecret+`"`, string(got))
	assert.NotContains(string(got), "super-secret")
}
