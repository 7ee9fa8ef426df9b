// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package oauth implements a generic server-side OAuth2/OIDC authorization
// code login flow. A single engine handles both phases of the flow (the
// redirect to the provider and the provider's callback) behind one
// http.Handler, parameterized by a provider Profile and a Config.
//
// Per in-flight login attempt the engine mints and later verifies flow
// integrity material (state, nonce and a PKCE verifier/challenge pair),
// carried across the redirect round trip in a short-lived sealed cookie
// scoped to the callback path. The engine itself keeps no server-side state.
//
// Token and userinfo responses are passed through as opaque key/value
// payloads; interpreting them is left to the caller-supplied success
// continuation, which also owns the final HTTP response.
//
//	handler := oauth.GitHub().Handler(&oauth.Config{
//		ClientID:     "client-id",
//		ClientSecret: "client-secret",
//	}, func(w http.ResponseWriter, r *http.Request, res *oauth.Result) {
//		// write the session, redirect into the application, etc.
//	}, nil)
//	mux.Handle("/auth/github", handler)
package oauth
