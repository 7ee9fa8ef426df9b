// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package sealbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()
	const password = "do-not-tell-anyone-this-test-password"

	t.Run("round-trip", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		sealed, err := Seal(password, []byte(`{"user":"alice"}`))
		require.NoError(err)
		assert.NotContains(sealed, "alice")

		got, err := Open(password, sealed)
		require.NoError(err)
		assert.Equal(`{"user":"alice"}`, string(got))
	})
	t.Run("unique-ciphertext", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		first, err := Seal(password, []byte("same"))
		require.NoError(err)
		second, err := Seal(password, []byte("same"))
		require.NoError(err)
		assert.NotEqual(first, second)
	})
	t.Run("wrong-password", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		sealed, err := Seal(password, []byte("secret"))
		require.NoError(err)
		_, err = Open("not-the-password-used-to-seal-it!", sealed)
		require.Error(err)
		assert.True(errors.Is(err, ErrOpenFailed))
	})
	t.Run("tampered", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		sealed, err := Seal(password, []byte("secret"))
		require.NoError(err)
		tampered := []byte(sealed)
		tampered[len(tampered)-1] ^= 0x01
		_, err = Open(password, string(tampered))
		require.Error(err)
		assert.True(errors.Is(err, ErrOpenFailed) || errors.Is(err, ErrInvalidSealedBox))
	})
	t.Run("not-base64", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := Open(password, "%%%not-encoded%%%")
		require.Error(err)
		assert.True(errors.Is(err, ErrInvalidSealedBox))
	})
	t.Run("truncated", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := Open(password, "c2hvcnQ")
		require.Error(err)
		assert.True(errors.Is(err, ErrInvalidSealedBox))
	})
	t.Run("empty-password", func(t *testing.T) {
		require := require.New(t)
		_, err := Seal("", []byte("secret"))
		require.Error(err)
		_, err = Open("", "c2hvcnQ")
		require.Error(err)
	})
}
