package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultScope is the Graph scope for app-only (client credentials) access.
const DefaultScope = "https://graph.microsoft.com/.default"

// refreshSkew is how long before expiry a cached token is considered stale.
const refreshSkew = time.Minute

// TokenSource yields a bearer token for Graph requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a TokenSource that always yields the given token.
// Used by tests and by callers that manage tokens externally.
func StaticTokenSource(token string) TokenSource {
	return staticTokenSource(token)
}

type staticTokenSource string

func (s staticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// ClientCredentials acquires app-only tokens from Azure AD and caches them
// until shortly before expiry. Safe for concurrent use.
type ClientCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Scope defaults to DefaultScope.
	Scope string
	// TokenURL overrides the Azure AD endpoint, for tests.
	TokenURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns the cached token, refreshing it when missing or about to
// expire.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-refreshSkew)) {
		return c.token, nil
	}

	token, expiry, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expiry = expiry
	return token, nil
}

func (c *ClientCredentials) fetch(ctx context.Context) (string, time.Time, error) {
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID)
	}
	scope := c.Scope
	if scope == "" {
		scope = DefaultScope
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"scope":         {scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response contained no access token")
	}

	return tr.AccessToken, tokenExpiry(tr), nil
}

// tokenExpiry determines when the token expires. The token's own exp claim is
// authoritative when it parses as a JWT; expires_in is the fallback for
// opaque tokens.
func tokenExpiry(tr tokenResponse) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	if tr.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return time.Now().Add(5 * time.Minute)
}
