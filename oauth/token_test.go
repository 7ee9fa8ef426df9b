// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenResponse(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	tokens := TokenResponse{
		"access_token": "T",
		"token_type":   "bearer",
		"id_token":     "xxx.yyy.zzz",
		"scope":        "openid",
		"expires_in":   float64(3600),
	}
	assert.Equal("T", tokens.AccessToken())
	assert.Equal("bearer", tokens.TokenType())
	assert.Equal("xxx.yyy.zzz", tokens.IDToken())

	empty := TokenResponse{}
	assert.Empty(empty.AccessToken())
	assert.Equal("Bearer", empty.TokenType())
	assert.Empty(empty.IDToken())

	// non-string values read as absent, not as a panic
	odd := TokenResponse{"access_token": 42}
	assert.Empty(odd.AccessToken())
}

func TestTokenResponse_Err(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	code, desc, ok := TokenResponse{"error": "invalid_grant", "error_description": "expired"}.Err()
	assert.True(ok)
	assert.Equal("invalid_grant", code)
	assert.Equal("expired", desc)

	_, _, ok = TokenResponse{"access_token": "T"}.Err()
	assert.False(ok)
}

func Test_verifyIDTokenNonce(t *testing.T) {
	t.Parallel()

	t.Run("matching", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		idToken := TestSignIDToken(t, "expected-nonce", map[string]interface{}{"sub": "42"})
		require.NoError(verifyIDTokenNonce(idToken, "expected-nonce"))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		idToken := TestSignIDToken(t, "some-nonce", nil)
		err := verifyIDTokenNonce(idToken, "expected-nonce")
		require.Error(err)
		assert.ErrorIs(err, ErrIntegrityFailure)
	})

	t.Run("missing-claim", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		idToken := TestSignIDToken(t, "", nil)
		require.Error(verifyIDTokenNonce(idToken, "expected-nonce"))
	})

	t.Run("not-a-jwt", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		require.Error(verifyIDTokenNonce("not-a-jwt", "expected-nonce"))
	})
}
