// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestProvider is a local server implementing the three provider endpoints
// the engine talks to (authorization, token, userinfo), which makes writing
// flow tests much easier. Endpoint behavior and replies are configurable, and
// every endpoint counts its calls so tests can assert, for example, that a
// failed integrity check never reached the token endpoint.
type TestProvider struct {
	httpServer *httptest.Server

	mu              sync.Mutex
	authCode        string
	tokenReply      map[string]interface{}
	tokenStatus     int
	userinfoReply   map[string]interface{}
	userinfoStatus  int
	authCalls       int
	tokenCalls      int
	userinfoCalls   int
	lastTokenForm   url.Values
	lastTokenAuth   string
	lastUserinfoReq *http.Request

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider with reasonable
// defaults: the token endpoint replies {"access_token": "T", "token_type":
// "Bearer"} and the userinfo endpoint replies {"id": "42"}.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	p := &TestProvider{
		t:              t,
		authCode:       "test-authorization-code",
		tokenReply:     map[string]interface{}{"access_token": "T", "token_type": "Bearer"},
		tokenStatus:    http.StatusOK,
		userinfoReply:  map[string]interface{}{"id": "42"},
		userinfoStatus: http.StatusOK,
	}
	p.httpServer = httptest.NewServer(p)
	t.Cleanup(p.Stop)
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// AuthorizationURL returns the test provider's authorization endpoint.
func (p *TestProvider) AuthorizationURL() string { return p.httpServer.URL + "/authorize" }

// TokenURL returns the test provider's token endpoint.
func (p *TestProvider) TokenURL() string { return p.httpServer.URL + "/token" }

// UserinfoURL returns the test provider's userinfo endpoint.
func (p *TestProvider) UserinfoURL() string { return p.httpServer.URL + "/userinfo" }

// Config returns a Config pointed at the test provider's endpoints.
func (p *TestProvider) Config() *Config {
	return &Config{
		ClientID:         "test-client-id",
		ClientSecret:     "test-client-secret-which-is-long-enough",
		AuthorizationURL: p.AuthorizationURL(),
		TokenURL:         p.TokenURL(),
		UserinfoURL:      p.UserinfoURL(),
	}
}

// SetTokenReply configures the token endpoint's JSON reply and status.
func (p *TestProvider) SetTokenReply(status int, reply map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = status
	p.tokenReply = reply
}

// SetUserinfoReply configures the userinfo endpoint's JSON reply and status.
func (p *TestProvider) SetUserinfoReply(status int, reply map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userinfoStatus = status
	p.userinfoReply = reply
}

// AuthorizeCalls returns how many times the authorization endpoint was hit.
func (p *TestProvider) AuthorizeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authCalls
}

// TokenCalls returns how many times the token endpoint was hit.
func (p *TestProvider) TokenCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls
}

// UserinfoCalls returns how many times the userinfo endpoint was hit.
func (p *TestProvider) UserinfoCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userinfoCalls
}

// LastTokenForm returns the form the last token exchange posted.
func (p *TestProvider) LastTokenForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenForm
}

// LastTokenAuthHeader returns the Authorization header of the last token
// exchange, or "".
func (p *TestProvider) LastTokenAuthHeader() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenAuth
}

// LastUserinfoRequest returns the last request the userinfo endpoint saw.
func (p *TestProvider) LastUserinfoRequest() *http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUserinfoReq
}

// ServeHTTP implements the test provider's endpoints.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch r.URL.Path {
	case "/authorize":
		p.authCalls++
		redirectURI := r.URL.Query().Get("redirect_uri")
		if redirectURI == "" {
			http.Error(w, "missing redirect_uri", http.StatusBadRequest)
			return
		}
		u, err := url.Parse(redirectURI)
		if err != nil {
			http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
			return
		}
		v := u.Query()
		v.Set("code", p.authCode)
		if state := r.URL.Query().Get("state"); state != "" {
			v.Set("state", state)
		}
		u.RawQuery = v.Encode()
		http.Redirect(w, r, u.String(), http.StatusFound)
	case "/token":
		p.tokenCalls++
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		p.lastTokenForm = r.PostForm
		p.lastTokenAuth = r.Header.Get("Authorization")
		writeTestJSON(w, p.tokenStatus, p.tokenReply)
	case "/userinfo":
		p.userinfoCalls++
		p.lastUserinfoReq = r.Clone(r.Context())
		writeTestJSON(w, p.userinfoStatus, p.userinfoReply)
	default:
		http.NotFound(w, r)
	}
}

func writeTestJSON(w http.ResponseWriter, status int, reply interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(reply)
}

// TestSignIDToken bundles the provided claims into a signed test id_token
// with the given nonce claim.
func TestSignIDToken(t *testing.T, nonce string, privateClaims map[string]interface{}) string {
	t.Helper()
	require := require.New(t)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)

	claims := map[string]interface{}{
		"nonce": nonce,
	}
	for k, v := range privateClaims {
		claims[k] = v
	}
	raw, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	require.NoError(err)
	return raw
}
