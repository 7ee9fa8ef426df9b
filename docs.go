// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// weblogin (web login packages) provides a collection of related packages
// which implement server-side OAuth2/OIDC authorization code login flows
// against third-party identity providers, along with an encrypted
// cookie-backed session store.
//
// See README.md
package weblogin
