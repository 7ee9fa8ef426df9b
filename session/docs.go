// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package session implements a user session held entirely in an encrypted,
// tamper-evident client-side cookie; there is no server-side session state.
// The payload is an opaque key/value map owned by the application - the
// store never interprets it beyond the "user" key its Require gate checks.
//
// Writes merge: Set deep-merges new fields over the existing payload, so
// successive logins (say, GitHub then Spotify) accumulate into one session
// instead of clobbering each other. A cookie that fails decryption,
// integrity verification or freshness is simply "no session", never an
// error.
package session
