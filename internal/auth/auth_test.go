package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileflow/fileflow/pkg/client"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestStaticAndChain(t *testing.T) {
	ctx := context.Background()

	tok, err := Static("abc").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	failing := client.TokenSourceFunc(func(context.Context) (string, error) {
		return "", errors.New("no session")
	})

	tok, err = Chain(nil, failing, Static(""), Static("second")).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	_, err = Chain(Static(""), failing).Token(ctx)
	assert.EqualError(t, err, "no session")

	tok, err = Chain().Token(ctx)
	assert.NoError(t, err)
	assert.Empty(t, tok)
}

func TestExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, ok := ExpiryFromJWT(signed(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "expected %v, got %v", exp, got)

	_, ok = ExpiryFromJWT("not-a-jwt")
	assert.False(t, ok)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	tf := NewTokenFile(signed(t, exp), "https://api.example.com")

	require.NoError(t, SaveToken(path, tf))
	loaded, err := LoadToken(path)
	require.NoError(t, err)

	assert.Equal(t, tf.Token, loaded.Token)
	assert.Equal(t, tf.Server, loaded.Server)
	assert.True(t, loaded.ExpiresAt.Equal(exp))

	require.NoError(t, DeleteToken(path))
	require.NoError(t, DeleteToken(path), "deleting twice should be fine")
}

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		margin  time.Duration
		want    bool
	}{
		{"no expiry", time.Time{}, time.Hour, false},
		{"future token", time.Now().Add(24 * time.Hour), 0, false},
		{"past token", time.Now().Add(-1 * time.Hour), 0, true},
		{"expires within margin", time.Now().Add(30 * time.Minute), 1 * time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := &TokenFile{ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, tf.IsExpired(tt.margin))
		})
	}
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")
	src := &FileSource{Path: path}

	tok, err := src.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file yields no token")

	require.NoError(t, SaveToken(path, &TokenFile{Token: "fresh"}))
	tok, err = src.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)

	require.NoError(t, SaveToken(path, &TokenFile{Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)}))
	tok, err = src.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok, "expired token is not sent")
}

func TestIssuerURL(t *testing.T) {
	assert.Equal(t, "https://tenant.auth0.com/", IssuerURL("tenant.auth0.com"))
	assert.Equal(t, "https://tenant.auth0.com/", IssuerURL("tenant.auth0.com/"))
	assert.Equal(t, "http://127.0.0.1:9999", IssuerURL("http://127.0.0.1:9999"))
}

func TestNewOIDCSource(t *testing.T) {
	var tokenCalls atomic.Int32
	var gotAudience, gotGrant string

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 ts.URL,
			"authorization_endpoint": ts.URL + "/authorize",
			"token_endpoint":         ts.URL + "/oauth/token",
			"jwks_uri":               ts.URL + "/.well-known/jwks.json",
		})
	})
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		r.ParseForm()
		gotAudience = r.PostForm.Get("audience")
		gotGrant = r.PostForm.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "m2m-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	src, err := NewOIDCSource(context.Background(), OIDCConfig{
		Domain:       ts.URL,
		ClientID:     "cli",
		ClientSecret: "secret",
		Audience:     "https://api.fileflow.test",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tok, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "m2m-token", tok)
	}
	assert.Equal(t, int32(1), tokenCalls.Load(), "token should be cached until expiry")
	assert.Equal(t, "https://api.fileflow.test", gotAudience)
	assert.Equal(t, "client_credentials", gotGrant)
}

func TestNewOIDCSourceRequiresSecret(t *testing.T) {
	_, err := NewOIDCSource(context.Background(), OIDCConfig{Domain: "tenant.auth0.com"})
	assert.ErrorIs(t, err, ErrNoClientSecret)
}

func TestLazy(t *testing.T) {
	var builds atomic.Int32
	fail := true
	src := Lazy(func(context.Context) (client.TokenSource, error) {
		builds.Add(1)
		if fail {
			return nil, errors.New("provider down")
		}
		return Static("lazy"), nil
	})
	ctx := context.Background()

	_, err := src.Token(ctx)
	require.Error(t, err)

	fail = false
	for i := 0; i < 3; i++ {
		tok, err := src.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "lazy", tok)
	}
	assert.Equal(t, int32(2), builds.Load())
}
