// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	sdkhttp "github.com/hashicorp/weblogin/sdk/http"
	"golang.org/x/oauth2"
)

// SuccessFn is the continuation invoked when a login flow completes. Its
// response is the flow's terminal response: the engine issues no redirect of
// its own after success.
type SuccessFn func(w http.ResponseWriter, r *http.Request, result *Result)

// ErrorFn is the optional continuation invoked when a login flow fails. When
// provided it fully owns the response for that error; when nil the engine
// writes a JSON error with the failure's status class.
type ErrorFn func(w http.ResponseWriter, r *http.Request, flowErr *Error)

// maxResponseBody caps how much of a provider response the engine will read.
const maxResponseBody = 1 << 20

type handler struct {
	profile   *Profile
	conf      *Config
	onSuccess SuccessFn
	onError   ErrorFn
	client    *http.Client
	clientErr error
	opts      handlerOptions
}

// Handler returns the single http.Handler for this provider's login flow.
// It serves both phases: a request without an authorization code starts a
// flow and redirects to the provider; the provider's callback to the same
// URL, carrying a code, finishes it. Supported options: WithLogger,
// WithHTTPClient, WithProviderCA, WithAttemptTTL, WithCookiePassword,
// WithAllowedRedirectHosts, WithNow.
func (p *Profile) Handler(c *Config, onSuccess SuccessFn, onError ErrorFn, opt ...Option) http.HandlerFunc {
	opts := getHandlerOpts(opt...)
	h := &handler{
		profile:   p,
		conf:      c,
		onSuccess: onSuccess,
		onError:   onError,
		client:    opts.withHTTPClient,
		opts:      opts,
	}
	if h.client == nil {
		h.client, h.clientErr = sdkhttp.NewClient(opts.withProviderCA)
	}
	return h.serveHTTP
}

func (h *handler) serveHTTP(w http.ResponseWriter, r *http.Request) {
	c := h.resolve()
	q := r.URL.Query()

	// A provider error on the callback is terminal before anything else: no
	// config, no checks, no exchange.
	if errCode := q.Get("error"); errCode != "" {
		desc := fmt.Sprintf("%s login failed: %s", c.Provider, errCode)
		if ed := q.Get("error_description"); ed != "" {
			desc = fmt.Sprintf("%s: %s", desc, ed)
		}
		h.fail(w, r, c, newError(ErrProviderDenied, http.StatusUnauthorized, desc, queryMap(q)))
		return
	}

	switch {
	case h.onSuccess == nil:
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, "no success continuation configured", nil))
		return
	case h.clientErr != nil:
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, fmt.Sprintf("unable to create http client: %s", h.clientErr), nil))
		return
	}
	if err := c.validate(); err != nil {
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, err.Error(), nil))
		return
	}

	redirectURL := c.RedirectURL
	if redirectURL == "" {
		redirectURL = requestScheme(r) + "://" + r.Host + r.URL.Path
	}
	if err := h.checkRedirectHost(redirectURL); err != nil {
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, err.Error(), nil))
		return
	}

	if code := q.Get("code"); code != "" {
		h.callback(w, r, c, redirectURL, code)
		return
	}
	h.redirect(w, r, c, redirectURL)
}

// redirect is the first phase: mint integrity material and send the user to
// the provider's authorization endpoint.
func (h *handler) redirect(w http.ResponseWriter, r *http.Request, c *Config, redirectURL string) {
	scopes := c.Scopes
	if c.EmailRequired && h.profile.EmailScope != "" && !containsScope(scopes, h.profile.EmailScope) {
		scopes = append(append([]string{}, scopes...), h.profile.EmailScope)
	}

	checkParams, err := h.createChecks(w, r, c)
	if err != nil {
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, fmt.Sprintf("unable to initialize login attempt: %s", err), nil))
		return
	}

	u, err := url.Parse(c.AuthorizationURL)
	if err != nil {
		h.fail(w, r, c, newError(ErrMisconfigured, http.StatusInternalServerError, fmt.Sprintf("invalid authorization URL: %s", err), nil))
		return
	}
	v := u.Query()
	v.Set("client_id", c.ClientID)
	v.Set("redirect_uri", redirectURL)
	v.Set("response_type", c.ResponseType)
	if len(scopes) > 0 {
		v.Set("scope", strings.Join(scopes, c.ScopeSeparator))
	}
	for param, values := range c.AuthorizationParams {
		for _, value := range values {
			v.Add(param, value)
		}
	}
	for param := range checkParams {
		v.Set(param, checkParams.Get(param))
	}
	u.RawQuery = v.Encode()

	h.opts.withLogger.Debug("redirecting to provider", "provider", c.Provider)
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// callback is the second phase: verify the attempt, exchange the code,
// fetch the profile and hand off to the success continuation.
func (h *handler) callback(w http.ResponseWriter, r *http.Request, c *Config, redirectURL, code string) {
	a, err := h.useChecks(w, r, c)
	if err != nil {
		h.fail(w, r, c, newError(ErrIntegrityFailure, http.StatusUnauthorized, err.Error(), nil))
		return
	}

	tokens, flowErr := h.exchange(r.Context(), c, redirectURL, code, a.Verifier)
	if flowErr != nil {
		h.fail(w, r, c, flowErr)
		return
	}

	if c.hasCheck(CheckNonce) {
		idToken := tokens.IDToken()
		if idToken == "" {
			h.fail(w, r, c, newError(ErrIntegrityFailure, http.StatusUnauthorized, "id_token is missing from token response", toMap(tokens)))
			return
		}
		if err := verifyIDTokenNonce(idToken, a.Nonce); err != nil {
			h.fail(w, r, c, newError(ErrIntegrityFailure, http.StatusUnauthorized, err.Error(), toMap(tokens)))
			return
		}
	}

	user, flowErr := h.userinfo(r.Context(), c, tokens)
	if flowErr != nil {
		h.fail(w, r, c, flowErr)
		return
	}

	h.opts.withLogger.Debug("login succeeded", "provider", c.Provider)
	h.onSuccess(w, r, &Result{User: user, Tokens: tokens})
}

// exchange trades the authorization code for tokens: a form-encoded POST to
// the token endpoint, with client credentials as Basic auth or body
// parameters per the provider's auth style. Transport failures and provider
// error payloads normalize to the same 401-class failure, raw payload
// attached.
func (h *handler) exchange(ctx context.Context, c *Config, redirectURL, code, verifier string) (TokenResponse, *Error) {
	form := url.Values{}
	form.Set("grant_type", c.GrantType)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURL)
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}
	if c.AuthStyle != oauth2.AuthStyleInHeader {
		form.Set("client_id", c.ClientID)
		form.Set("client_secret", string(c.ClientSecret))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, fmt.Sprintf("%s login failed: %s", c.Provider, err), nil)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.AuthStyle == oauth2.AuthStyleInHeader {
		req.SetBasicAuth(url.QueryEscape(c.ClientID), url.QueryEscape(string(c.ClientSecret)))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, fmt.Sprintf("%s login failed: %s", c.Provider, err), nil)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, fmt.Sprintf("%s login failed: %s", c.Provider, err), nil)
	}

	tokens := TokenResponse{}
	if err := json.Unmarshal(body, &tokens); err != nil {
		// some providers (GitHub, historically) answer form-encoded
		if vals, qerr := url.ParseQuery(string(body)); qerr == nil {
			for k := range vals {
				tokens[k] = vals.Get(k)
			}
		}
	}

	if errCode, errDesc, ok := tokens.Err(); ok {
		desc := fmt.Sprintf("%s login failed: %s", c.Provider, errCode)
		if errDesc != "" {
			desc = fmt.Sprintf("%s: %s", desc, errDesc)
		}
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, desc, toMap(tokens))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, fmt.Sprintf("%s login failed: token endpoint returned status %d", c.Provider, resp.StatusCode), toMap(tokens))
	}
	if tokens.AccessToken() == "" {
		return nil, newError(ErrTokenExchangeFailed, http.StatusUnauthorized, fmt.Sprintf("%s login failed: no access_token in token response", c.Provider), toMap(tokens))
	}
	return tokens, nil
}

// userinfo fetches the user profile with the access token as the bearer (or
// provider-decorated) credential. An empty or failed profile is a
// server-side failure, not a user error.
func (h *handler) userinfo(ctx context.Context, c *Config, tokens TokenResponse) (UserProfile, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserinfoURL, nil)
	if err != nil {
		return nil, newError(ErrProfileFetchFailed, http.StatusInternalServerError, fmt.Sprintf("could not get %s user: %s", c.Provider, err), toMap(tokens))
	}
	req.Header.Set("Authorization", tokens.TokenType()+" "+tokens.AccessToken())
	req.Header.Set("Accept", "application/json")
	if h.profile.DecorateUserinfo != nil {
		h.profile.DecorateUserinfo(req, c, tokens)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, newError(ErrProfileFetchFailed, http.StatusInternalServerError, fmt.Sprintf("could not get %s user: %s", c.Provider, err), toMap(tokens))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(ErrProfileFetchFailed, http.StatusInternalServerError, fmt.Sprintf("could not get %s user: userinfo endpoint returned status %d", c.Provider, resp.StatusCode), toMap(tokens))
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&raw); err != nil {
		return nil, newError(ErrProfileFetchFailed, http.StatusInternalServerError, fmt.Sprintf("could not get %s user: %s", c.Provider, err), toMap(tokens))
	}
	if h.profile.UnwrapUser != nil {
		raw = h.profile.UnwrapUser(raw)
	}
	if len(raw) == 0 {
		return nil, newError(ErrProfileFetchFailed, http.StatusInternalServerError, fmt.Sprintf("could not get %s user", c.Provider), toMap(tokens))
	}
	return UserProfile(raw), nil
}

// resolve builds the effective Config for this request: caller-supplied
// fields over OAUTH_<PROVIDER>_* environment over profile defaults over
// engine-wide fallbacks, first write wins.
func (h *handler) resolve() *Config {
	c := h.conf.clone()
	if c.Provider == "" {
		c.Provider = h.profile.Name
	}
	c.merge(envConfig(c.Provider))
	c.merge(&h.profile.Defaults)
	c.merge(fallbackDefaults())
	return c
}

func (h *handler) checkRedirectHost(redirectURL string) error {
	if len(h.opts.withAllowedRedirectHosts) == 0 {
		return nil
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}
	for _, allowed := range h.opts.withAllowedRedirectHosts {
		if u.Host == allowed {
			return nil
		}
	}
	return fmt.Errorf("redirect host %q is not in the allowed redirect hosts: %w", u.Host, ErrInvalidParameter)
}

// fail routes a flow error to the caller's ErrorFn, or renders it at the
// boundary when there isn't one. Raw provider payloads stay in the log and
// the Error value; the rendered response carries only the description.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, c *Config, e *Error) {
	h.opts.withLogger.Error("login flow failed", "provider", c.Provider, "kind", e.Err.Error(), "description", e.Description)
	if h.onError != nil {
		h.onError(w, r, e)
		return
	}
	writeError(w, e)
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func containsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func queryMap(q url.Values) map[string]interface{} {
	m := make(map[string]interface{}, len(q))
	for k := range q {
		m[k] = q.Get(k)
	}
	return m
}

func toMap(t TokenResponse) map[string]interface{} {
	return map[string]interface{}(t)
}
