// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		o(opts)
	}
}

// handlerOptions is the set of available options for Profile.Handler
type handlerOptions struct {
	withLogger               hclog.Logger
	withHTTPClient           *http.Client
	withProviderCA           string
	withAttemptTTL           time.Duration
	withCookiePassword       string
	withAllowedRedirectHosts []string
	withNowFunc              func() time.Time
}

// handlerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func handlerDefaults() handlerOptions {
	return handlerOptions{
		withLogger:     hclog.NewNullLogger(),
		withAttemptTTL: DefaultAttemptTTL,
		withNowFunc:    time.Now,
	}
}

// getHandlerOpts gets the handler defaults and applies the opt overrides
// passed in.
func getHandlerOpts(opt ...Option) handlerOptions {
	opts := handlerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional hclog.Logger the engine will emit
// debug/error entries to. Defaults to a null logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides an optional http client for the engine's
// server-to-server calls (token exchange, userinfo). Defaults to a pooled
// cleanhttp client.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithProviderCA provides an optional CA cert PEM to trust when calling the
// provider, instead of the system CA chain.
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithAttemptTTL provides an optional wall-clock lifetime for the login
// attempt cookie. Attempts older than this fail integrity verification.
// Defaults to DefaultAttemptTTL.
func WithAttemptTTL(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withAttemptTTL = ttl
		}
	}
}

// WithCookiePassword provides an optional password for sealing the login
// attempt cookie. Defaults to the resolved client secret.
func WithCookiePassword(password string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withCookiePassword = password
		}
	}
}

// WithAllowedRedirectHosts provides an optional allow-list of hosts the
// computed redirect URL may use. When set, a request arriving with any other
// Host header is rejected as a misconfiguration. Off by default.
func WithAllowedRedirectHosts(hosts ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withAllowedRedirectHosts = hosts
		}
	}
}

// WithNow provides an optional time source, for tests.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withNowFunc = now
		}
	}
}
