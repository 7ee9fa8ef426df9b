// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultNumBytes is the default entropy, in bytes, for a generated id. 16
// bytes gives 128 bits, the minimum required for an OAuth state parameter.
const DefaultNumBytes = 16

// New generates an id with an optional prefix. The id carries
// DefaultNumBytes of entropy and is url-safe.
func New(optionalPrefix string) (string, error) {
	id, err := Random(DefaultNumBytes)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

// Random generates a url-safe random string from numBytes of entropy. The
// returned string is base64 encoded, so it's longer than numBytes.
func Random(numBytes int) (string, error) {
	if numBytes <= 0 {
		return "", fmt.Errorf("number of bytes must be greater than zero: %d", numBytes)
	}
	data, err := uuid.GenerateRandomBytes(numBytes)
	if err != nil {
		return "", fmt.Errorf("unable to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}
