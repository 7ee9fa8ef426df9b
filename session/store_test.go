// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, opt ...Option) *Store {
	t.Helper()
	s, err := New(&Config{Password: testPassword}, opt...)
	require.NoError(t, err)
	return s
}

// requestWith returns a GET request carrying the cookies written to w.
func requestWith(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	s, err := New(&Config{Password: testPassword})
	require.NoError(err)
	require.NotNil(s)

	_, err = New(&Config{Password: "short"})
	require.Error(err)
	assert.ErrorIs(err, ErrInvalidConfig)

	_, err = New(nil)
	require.Error(err)
	assert.ErrorIs(err, ErrInvalidConfig)
}

func TestStore_SetGet(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := testStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := s.Set(w, r, Payload{"user": map[string]interface{}{"id": "42"}})
	require.NoError(err)
	assert.Equal(Payload{"user": map[string]interface{}{"id": "42"}}, got)

	cookies := w.Result().Cookies()
	require.Len(cookies, 1)
	c := cookies[0]
	assert.Equal(DefaultCookieName, c.Name)
	assert.Equal("/", c.Path)
	assert.True(c.HttpOnly)
	assert.Equal(http.SameSiteLaxMode, c.SameSite)
	assert.Equal(int(DefaultTTL.Seconds()), c.MaxAge)
	assert.False(c.Secure)
	assert.NotContains(c.Value, "42")

	restored := s.Get(requestWith(t, w))
	require.Contains(restored, "user")
	user, ok := restored["user"].(map[string]interface{})
	require.True(ok)
	assert.Equal("42", user["id"])
}

func TestStore_Set_merges(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := testStore(t)

	w1 := httptest.NewRecorder()
	_, err := s.Set(w1, httptest.NewRequest(http.MethodGet, "/", nil), Payload{
		"user":  map[string]interface{}{"id": "42", "name": "alice"},
		"theme": "dark",
	})
	require.NoError(err)

	w2 := httptest.NewRecorder()
	got, err := s.Set(w2, requestWith(t, w1), Payload{
		"user": map[string]interface{}{"name": "bob"},
	})
	require.NoError(err)

	user, ok := got["user"].(Payload)
	require.True(ok)
	assert.Equal("42", user["id"])
	assert.Equal("bob", user["name"])
	assert.Equal("dark", got["theme"])
}

func TestStore_Set_secureCookie(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := testStore(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	_, err := s.Set(w, r, Payload{"k": "v"})
	require.NoError(err)
	require.Len(w.Result().Cookies(), 1)
	assert.True(w.Result().Cookies()[0].Secure)
}

func TestStore_Get_invalidCookies(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	w := httptest.NewRecorder()
	_, err := s.Set(w, httptest.NewRequest(http.MethodGet, "/", nil), Payload{"user": "alice"})
	require.NoError(t, err)
	sealed := w.Result().Cookies()[0].Value

	tests := []struct {
		name  string
		value string
	}{
		{name: "missing", value: ""},
		{name: "garbage", value: "not-a-session"},
		{name: "tampered", value: "AAAA" + sealed[4:]},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.value != "" {
				r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tt.value})
			}
			assert.Empty(s.Get(r))
		})
	}

	t.Run("wrong-password", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		other := testStore(t)
		other.conf.Password = Password("ffffffffffffffffffffffffffffffff")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: sealed})
		assert.Empty(other.Get(r))
	})
}

func TestStore_Get_expired(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	now := time.Now()
	s := testStore(t, WithNow(func() time.Time { return now }))

	w := httptest.NewRecorder()
	_, err := s.Set(w, httptest.NewRequest(http.MethodGet, "/", nil), Payload{"user": "alice"})
	require.NoError(err)
	r := requestWith(t, w)

	assert.NotEmpty(s.Get(r))

	now = now.Add(DefaultTTL + time.Minute)
	assert.Empty(s.Get(r))
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := testStore(t)

	w := httptest.NewRecorder()
	assert.True(s.Clear(w))
	cookies := w.Result().Cookies()
	require.Len(cookies, 1)
	assert.Equal(DefaultCookieName, cookies[0].Name)
	assert.Empty(cookies[0].Value)
	assert.Equal(-1, cookies[0].MaxAge)
}

func TestStore_Require(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := testStore(t)

	_, err := s.Require(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(err, ErrUnauthorized)

	w := httptest.NewRecorder()
	_, err = s.Set(w, httptest.NewRequest(http.MethodGet, "/", nil), Payload{"theme": "dark"})
	require.NoError(err)
	_, err = s.Require(requestWith(t, w))
	assert.ErrorIs(err, ErrUnauthorized)

	w2 := httptest.NewRecorder()
	_, err = s.Set(w2, requestWith(t, w), Payload{"user": map[string]interface{}{"id": "42"}})
	require.NoError(err)
	got, err := s.Require(requestWith(t, w2))
	require.NoError(err)
	assert.Contains(got, "user")
	assert.Equal("dark", got["theme"])
}
