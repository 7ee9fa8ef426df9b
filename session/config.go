// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/weblogin/sdk/id"
)

const (
	// DefaultCookieName is the session cookie's name unless configured.
	DefaultCookieName = "weblogin_session"

	// DefaultTTL is the session lifetime unless configured.
	DefaultTTL = 7 * 24 * time.Hour

	// MinPasswordLen is the minimum length of the session password. The
	// password is the only thing protecting session confidentiality and
	// integrity, so a short one is a configuration error, not a preference.
	MinPasswordLen = 32
)

type Password string

// RedactedPassword is the redacted string or json for a session password
const RedactedPassword = "[REDACTED: session password]"

// String will redact the session password
func (p Password) String() string {
	return RedactedPassword
}

// MarshalJSON will redact the session password
func (p Password) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedPassword)
}

// Config is the session store configuration. It's resolved once per process
// (see Default) or constructed explicitly and passed to New.
type Config struct {
	// CookieName for the session cookie. Defaults to DefaultCookieName.
	CookieName string

	// Password seals the session cookie. Required, at least MinPasswordLen
	// characters.
	Password Password

	// TTL is how long a session lives after its last write. Defaults to
	// DefaultTTL.
	TTL time.Duration
}

// validate checks the config and fills defaults in place.
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("session config is nil: %w", ErrInvalidConfig)
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if len(c.Password) < MinPasswordLen {
		return fmt.Errorf("session password must be at least %d characters: %w", MinPasswordLen, ErrInvalidConfig)
	}
	return nil
}

// FromEnv builds a Config from SESSION_COOKIE_NAME, SESSION_PASSWORD and
// SESSION_TTL (a Go duration string). When SESSION_PASSWORD is unset a
// random one is generated for local development convenience and a warning is
// emitted: the generated password does not survive a process restart, which
// invalidates all prior sessions. That's documented behavior, not a bug -
// set SESSION_PASSWORD in any real deployment.
func FromEnv(logger hclog.Logger) *Config {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	c := &Config{
		CookieName: os.Getenv("SESSION_COOKIE_NAME"),
		Password:   Password(os.Getenv("SESSION_PASSWORD")),
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			logger.Warn("invalid SESSION_TTL, using default", "ttl", ttl, "default", DefaultTTL.String())
		} else {
			c.TTL = d
		}
	}
	if c.Password == "" {
		random, err := id.Random(MinPasswordLen)
		if err != nil {
			// out of entropy; nothing sensible to do but give up loudly
			panic(fmt.Sprintf("session: unable to generate a session password: %s", err))
		}
		c.Password = Password(random)
		logger.Warn("no session password set, generated a random one; set SESSION_PASSWORD (at least 32 chars) or all sessions will be invalidated on restart")
	}
	return c
}
