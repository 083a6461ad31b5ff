// Package auth provides the token sources the request client reads bearer
// credentials from.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fileflow/fileflow/pkg/client"
)

// Static always returns the same token.
func Static(token string) client.TokenSource {
	return client.TokenSourceFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// Chain returns the first non-empty token from sources. Errors from earlier
// sources are skipped; if none yields a token the last error is returned.
func Chain(sources ...client.TokenSource) client.TokenSource {
	return client.TokenSourceFunc(func(ctx context.Context) (string, error) {
		var lastErr error
		for _, s := range sources {
			if s == nil {
				continue
			}
			tok, err := s.Token(ctx)
			if err != nil {
				lastErr = err
				continue
			}
			if tok != "" {
				return tok, nil
			}
		}
		return "", lastErr
	})
}

// OAuth2Source adapts an oauth2.TokenSource, which handles caching and
// refresh, to the client's TokenSource.
type OAuth2Source struct {
	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewOAuth2Source wraps src in oauth2.ReuseTokenSource.
func NewOAuth2Source(src oauth2.TokenSource) *OAuth2Source {
	return &OAuth2Source{src: oauth2.ReuseTokenSource(nil, src)}
}

// Token returns the current access token.
func (s *OAuth2Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.src.Token()
	if err != nil {
		return "", fmt.Errorf("oauth2 token: %w", err)
	}
	return tok.AccessToken, nil
}

// OIDCConfig describes the identity provider.
type OIDCConfig struct {
	// Domain is the provider host ("tenant.auth0.com") or a full issuer URL.
	Domain       string
	ClientID     string
	ClientSecret string
	Audience     string
	Scopes       []string
}

// IssuerURL turns a bare domain into an https issuer URL with the trailing
// slash Auth0-style providers use. Full URLs are returned unchanged.
func IssuerURL(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + strings.TrimSuffix(domain, "/") + "/"
}

// ErrNoClientSecret is returned when the provider cannot be used
// non-interactively.
var ErrNoClientSecret = errors.New("client secret required for the client credentials flow")

// NewOIDCSource discovers the provider's token endpoint and returns a source
// that obtains tokens with the client credentials grant. ctx bounds
// discovery and is also used for later token requests, so it should live as
// long as the session.
func NewOIDCSource(ctx context.Context, cfg OIDCConfig) (*OAuth2Source, error) {
	if cfg.ClientSecret == "" {
		return nil, ErrNoClientSecret
	}
	provider, err := oidc.NewProvider(ctx, IssuerURL(cfg.Domain))
	if err != nil {
		return nil, fmt.Errorf("discover identity provider: %w", err)
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
		Scopes:       cfg.Scopes,
	}
	if cfg.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {cfg.Audience}}
	}
	return NewOAuth2Source(cc.TokenSource(ctx)), nil
}

// Lazy defers building a source until the first token is requested. A
// failed build is retried on the next call; a successful one is kept.
func Lazy(build func(ctx context.Context) (client.TokenSource, error)) client.TokenSource {
	var (
		mu  sync.Mutex
		src client.TokenSource
	)
	return client.TokenSourceFunc(func(ctx context.Context) (string, error) {
		mu.Lock()
		if src == nil {
			s, err := build(ctx)
			if err != nil {
				mu.Unlock()
				return "", err
			}
			src = s
		}
		s := src
		mu.Unlock()
		return s.Token(ctx)
	})
}
