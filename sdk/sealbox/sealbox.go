// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package sealbox seals small payloads (like cookie values) so they are both
// confidential and tamper-evident. A sealed box is AES-256-GCM ciphertext
// under a key derived from a caller-supplied password, encoded url-safe so it
// can travel in a cookie.
package sealbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/hashicorp/go-uuid"
	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrInvalidSealedBox = errors.New("invalid sealed box")
	ErrOpenFailed       = errors.New("unable to open sealed box")
)

const (
	saltLen = 16
	keyLen  = 32

	// pbkdf2Iterations is deliberately modest: the password is expected to be
	// a high-entropy machine secret, not a human-chosen one.
	pbkdf2Iterations = 4096
)

// Seal encrypts and authenticates plaintext under a key derived from
// password. The result is a url-safe string suitable for a cookie value.
func Seal(password string, plaintext []byte) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty: %w", ErrInvalidSealedBox)
	}
	salt, err := uuid.GenerateRandomBytes(saltLen)
	if err != nil {
		return "", fmt.Errorf("unable to generate salt: %w", err)
	}
	aead, err := newAEAD(password, salt)
	if err != nil {
		return "", err
	}
	nonce, err := uuid.GenerateRandomBytes(aead.NonceSize())
	if err != nil {
		return "", fmt.Errorf("unable to generate nonce: %w", err)
	}

	// sealed box layout: salt || nonce || ciphertext
	box := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+aead.Overhead())
	box = append(box, salt...)
	box = append(box, nonce...)
	box = aead.Seal(box, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open authenticates and decrypts a sealed box produced by Seal. Any
// tampering, truncation or wrong password fails with ErrOpenFailed.
func Open(password, sealed string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("password is empty: %w", ErrInvalidSealedBox)
	}
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSealedBox, err)
	}
	aead, err := newAEADFromBox(password, box)
	if err != nil {
		return nil, err
	}
	if len(box) < saltLen+aead.NonceSize() {
		return nil, fmt.Errorf("sealed box is truncated: %w", ErrInvalidSealedBox)
	}
	nonce := box[saltLen : saltLen+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, box[saltLen+aead.NonceSize():], nil)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

func newAEADFromBox(password string, box []byte) (cipher.AEAD, error) {
	if len(box) < saltLen {
		return nil, fmt.Errorf("sealed box is truncated: %w", ErrInvalidSealedBox)
	}
	return newAEAD(password, box[:saltLen])
}

func newAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("unable to create aead: %w", err)
	}
	return aead, nil
}
