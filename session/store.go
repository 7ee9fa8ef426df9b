// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/weblogin/sdk/id"
	"github.com/hashicorp/weblogin/sdk/sealbox"
)

var (
	ErrInvalidConfig = errors.New("invalid session config")

	// ErrUnauthorized - Require found no authenticated user in the session.
	ErrUnauthorized = errors.New("unauthorized")
)

// Payload is the application-owned session data.
type Payload map[string]interface{}

// envelope wraps the payload with the store's own metadata inside the sealed
// cookie.
type envelope struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Data      Payload   `json:"data"`
}

// Store reads and writes the encrypted session cookie.
type Store struct {
	conf   *Config
	logger hclog.Logger
	now    func() time.Time
}

// New creates a Store from an explicit Config. Supported options:
// WithLogger, WithNow.
func New(c *Config, opt ...Option) (*Store, error) {
	const op = "session.New"
	opts := getStoreOpts(opt...)
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{
		conf:   c,
		logger: opts.withLogger,
		now:    opts.withNowFunc,
	}, nil
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the process-wide Store, resolving its configuration from
// the environment exactly once; concurrent first uses converge on a single
// configuration. Applications that want explicit wiring should construct
// their own Store with New and ignore Default.
func Default() *Store {
	defaultOnce.Do(func() {
		logger := hclog.Default().Named("session")
		s, err := New(FromEnv(logger), WithLogger(logger))
		if err != nil {
			// FromEnv always produces a valid password, so this only
			// triggers on a programming error
			panic(fmt.Sprintf("session: unable to build default store: %s", err))
		}
		defaultStore = s
	})
	return defaultStore
}

// Get decrypts and verifies the session cookie, returning its payload. A
// missing, tampered or expired cookie is just "no session": Get returns an
// empty payload and never an error for those.
func (s *Store) Get(r *http.Request) Payload {
	env, ok := s.read(r)
	if !ok {
		return Payload{}
	}
	return env.Data
}

// Set merges data over the existing session payload (a deep merge - new
// values win on collision, untouched keys survive) and rewrites the sealed
// cookie. It returns the resulting full payload. The first Set creates the
// session; the cookie's expiry is refreshed on every write.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, data Payload) (Payload, error) {
	const op = "session.(Store).Set"
	env, ok := s.read(r)
	if !ok {
		sessionID, err := id.New("s")
		if err != nil {
			return nil, fmt.Errorf("%s: unable to generate session id: %w", op, err)
		}
		env = &envelope{
			ID:        sessionID,
			CreatedAt: s.now(),
			Data:      Payload{},
		}
	}
	env.Data = merge(env.Data, data)
	env.ExpiresAt = s.now().Add(s.conf.TTL)

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to marshal session: %w", op, err)
	}
	sealed, err := sealbox.Seal(string(s.conf.Password), payload)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to seal session: %w", op, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.conf.CookieName,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.conf.TTL.Seconds()),
	})
	return env.Data, nil
}

// Clear deletes the session cookie. It always succeeds and is idempotent.
func (s *Store) Clear(w http.ResponseWriter) bool {
	http.SetCookie(w, &http.Cookie{
		Name:   s.conf.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return true
}

// Require gates protected operations: it returns the full session payload
// when the session has a "user" field, and fails with ErrUnauthorized when
// it doesn't (including when there's no session at all).
func (s *Store) Require(r *http.Request) (Payload, error) {
	p := s.Get(r)
	if _, ok := p["user"]; !ok {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// read restores the envelope from the cookie. Any failure - absent cookie,
// unsealing failure, malformed payload, expired session - reads as "no
// session".
func (s *Store) read(r *http.Request) (*envelope, bool) {
	cookie, err := r.Cookie(s.conf.CookieName)
	if err != nil {
		return nil, false
	}
	payload, err := sealbox.Open(string(s.conf.Password), cookie.Value)
	if err != nil {
		s.logger.Debug("discarding session cookie that failed verification")
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Debug("discarding malformed session cookie")
		return nil, false
	}
	if env.Data == nil {
		env.Data = Payload{}
	}
	if !env.ExpiresAt.IsZero() && s.now().After(env.ExpiresAt) {
		return nil, false
	}
	return &env, true
}
