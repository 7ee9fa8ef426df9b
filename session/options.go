// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

// options are the set of available options for Store operations.
type options struct {
	withLogger  hclog.Logger
	withNowFunc func() time.Time
}

func storeDefaults() options {
	return options{
		withLogger:  hclog.NewNullLogger(),
		withNowFunc: time.Now,
	}
}

func getStoreOpts(opt ...Option) options {
	opts := storeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the store. By default nothing
// is logged.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			if l != nil {
				o.withLogger = l
			}
		}
	}
}

// WithNow provides an optional time source, which is useful when testing
// session expiry. By default time.Now is used.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			if now != nil {
				o.withNowFunc = now
			}
		}
	}
}
