package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultAuthorityURL = "https://login.microsoftonline.com"
	GraphScope          = "https://graph.microsoft.com/.default"
)

// Exchanger performs one token exchange against the identity provider.
type Exchanger interface {
	Exchange(ctx context.Context) (*oauth2.Token, error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context) (*oauth2.Token, error)

func (f ExchangerFunc) Exchange(ctx context.Context) (*oauth2.Token, error) {
	return f(ctx)
}

// Credentials identify the Azure AD app registration.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Complete reports whether all three values are present.
func (c Credentials) Complete() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

type clientCredentials struct {
	cfg    clientcredentials.Config
	client *http.Client
}

// NewClientCredentials returns an Exchanger for the client-credentials grant
// against {authority}/{tenant}/oauth2/v2.0/token. An empty authority uses Azure AD.
func NewClientCredentials(creds Credentials, authority string, client *http.Client) Exchanger {
	if authority == "" {
		authority = DefaultAuthorityURL
	}
	return &clientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     strings.TrimSuffix(authority, "/") + "/" + creds.TenantID + "/oauth2/v2.0/token",
			Scopes:       []string{GraphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: client,
	}
}

func (e *clientCredentials) Exchange(ctx context.Context) (*oauth2.Token, error) {
	if e.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	}
	return e.cfg.Token(ctx)
}

// TokenCache holds the current access token and refreshes it single-flight.
// Reads take only the read lock; a refresh is shared by every concurrent caller.
type TokenCache struct {
	exchanger Exchanger
	skew      time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu    sync.RWMutex
	token *oauth2.Token
	group singleflight.Group
}

// NewTokenCache creates a cache. A token is served only while now+skew is before its expiry.
func NewTokenCache(exchanger Exchanger, skew, timeout time.Duration, logger *slog.Logger) *TokenCache {
	return &TokenCache{
		exchanger: exchanger,
		skew:      skew,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.With("system", "graph-token"),
	}
}

// SetClock replaces the cache clock.
func (c *TokenCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Token returns a valid token, exchanging credentials when the cached one is
// missing or inside the expiry skew. Failures wrap ErrAuth.
func (c *TokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	if tok := c.cached(); tok != nil {
		return tok, nil
	}

	ch := c.group.DoChan("token", func() (any, error) {
		if tok := c.cached(); tok != nil {
			return tok, nil
		}
		return c.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for token: %w", ErrAuth, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops the cached token if it is still stale.
// A newer token stored by a concurrent refresh is kept.
func (c *TokenCache) Invalidate(stale *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && stale != nil && c.token.AccessToken == stale.AccessToken {
		c.token = nil
		c.logger.Debug("token invalidated")
	}
}

func (c *TokenCache) cached() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.valid(c.token) {
		return c.token
	}
	return nil
}

// valid requires a known expiry; tokens without one are refreshed.
func (c *TokenCache) valid(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" || tok.Expiry.IsZero() {
		return false
	}
	return c.now().Add(c.skew).Before(tok.Expiry)
}

func (c *TokenCache) refresh(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	tok, err := c.exchanger.Exchange(ctx)
	if err != nil {
		err = classifyExchange(err)
		c.logger.Error("token exchange failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	c.logger.Info("token refreshed", "expires", tok.Expiry, "duration", time.Since(start))
	return tok, nil
}

func classifyExchange(err error) error {
	var re *oauth2.RetrieveError
	switch {
	case errors.As(err, &re):
		return fmt.Errorf("%w: credentials rejected: %v", ErrAuth, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: identity provider timed out: %v", ErrAuth, err)
	default:
		return fmt.Errorf("%w: identity provider unreachable: %v", ErrAuth, err)
	}
}
