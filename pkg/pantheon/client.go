// Package pantheon is a client for the Pantheon hosting management API.
//
// The client owns the machine-token to session-token exchange, maps
// transport and HTTP outcomes onto a typed error taxonomy, and layers a
// generic cached-GET primitive under the resource operations. Long-running
// operations return a Workflow whose completion is driven by a Poller.
package pantheon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/pantheon-community/pantheonctl/pkg/cache"
)

const (
	// DefaultBaseURL is the production management API endpoint.
	DefaultBaseURL = "https://api.pantheon.io/v0"

	defaultTimeout     = 30 * time.Second
	defaultAuthTimeout = 15 * time.Second

	// defaultSessionTTL is deliberately shorter than the backend's actual
	// session expiry.
	defaultSessionTTL = time.Hour
)

// TokenSource supplies the machine token used for session exchange. An
// empty token with a nil error means no credential is configured.
type TokenSource interface {
	MachineToken() (string, error)
}

// StaticToken is a TokenSource wrapping a fixed machine token.
type StaticToken string

func (t StaticToken) MachineToken() (string, error) {
	return string(t), nil
}

// Config holds configuration for the API client.
type Config struct {
	// BaseURL of the management API. Default: DefaultBaseURL.
	BaseURL string

	// Tokens supplies the machine token. Required.
	Tokens TokenSource

	// Cache backs the cached-GET primitive. Default: in-memory.
	Cache cache.Store

	// Timeout for regular API requests. Default: 30s.
	Timeout time.Duration

	// AuthTimeout for the token exchange request. Default: 15s.
	AuthTimeout time.Duration

	// SessionTTL bounds how long an exchanged session token is reused.
	// Default: 1 hour.
	SessionTTL time.Duration

	// Logger (optional).
	Logger hclog.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Tokens == nil {
		return fmt.Errorf("token source is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https scheme, got: %s", u.Scheme)
	}
	return nil
}

// Client performs authenticated calls against the management API.
//
// The client is synchronous: each call blocks until the HTTP response or
// timeout. It holds no retry logic beyond the implicit one-shot
// re-authentication after a 401/403.
type Client struct {
	baseURL    string
	tokens     TokenSource
	cache      cache.Store
	httpClient *http.Client
	authClient *http.Client
	sessionTTL time.Duration
	logger     hclog.Logger

	mu            sync.Mutex
	session       string
	sessionExpiry time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AuthTimeout == 0 {
		cfg.AuthTimeout = defaultAuthTimeout
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		tokens:     cfg.Tokens,
		cache:      cfg.Cache,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		authClient: &http.Client{Timeout: cfg.AuthTimeout},
		sessionTTL: cfg.SessionTTL,
		logger:     cfg.Logger.Named("pantheon-client"),
		now:        time.Now,
	}, nil
}

// do executes one authenticated request. A nil body on PUT/DELETE is sent
// as an empty JSON object: the upstream rejects bodyless PUT/DELETE because
// it requires a Content-Length header on them.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.Session(ctx)
	if err != nil {
		return err
	}

	var reqBody []byte
	switch {
	case body != nil:
		reqBody, err = json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: err, Msg: "failed to marshal request body"}
		}
	case method == http.MethodPut || method == http.MethodDelete:
		reqBody = []byte("{}")
	}

	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err, Msg: "failed to create request"}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "op", op, "method", method, "path", path, "error", err)
		return &Error{Op: op, Err: ErrConnectionFailed, Msg: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read response", "op", op, "path", path, "error", err)
		return &Error{Op: op, Err: ErrConnectionFailed, Msg: err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Drop the cached session so the next call re-authenticates.
		c.invalidateSession()
		c.logger.Error("authentication failed", "op", op, "path", path, "status", resp.StatusCode)
		return &Error{Op: op, Err: ErrAuthenticationFailed, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := extractMessage(respBody)
		c.logger.Error("upstream error", "op", op, "path", path, "status", resp.StatusCode, "message", msg)
		return &Error{Op: op, Err: ErrUpstream, Msg: msg, StatusCode: resp.StatusCode}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			c.logger.Error("failed to decode response", "op", op, "path", path, "error", err)
			return &Error{Op: op, Err: ErrMalformedResponse, Msg: err.Error(), StatusCode: resp.StatusCode}
		}
	}

	return nil
}

// cachedGet returns the value under key when present and unexpired,
// otherwise fetches path, stores the payload in a timestamped envelope and
// decodes it into out. Fallback-to-stale is not implemented here; callers
// that want it keep their own last-known data.
func (c *Client) cachedGet(ctx context.Context, op, path, key string, ttl time.Duration, out any) error {
	if raw, ok := c.cache.Get(key); ok {
		if env, err := cache.Unwrap(raw, out); err == nil {
			c.logger.Debug("serving cached data", "op", op, "key", key, "age", env.Age())
			return nil
		}
		// Corrupt entry: fall through to a live fetch that overwrites it.
		c.logger.Warn("discarding unreadable cache entry", "op", op, "key", key)
	}

	var payload json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, nil, &payload); err != nil {
		return err
	}

	wrapped, err := cache.Wrap(payload, c.now())
	if err == nil {
		err = c.cache.Set(key, wrapped, ttl)
	}
	if err != nil {
		// A cache write failure degrades to uncached operation.
		c.logger.Warn("failed to cache response", "op", op, "key", key, "error", err)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return &Error{Op: op, Err: ErrMalformedResponse, Msg: err.Error()}
		}
	}
	return nil
}

// invalidate removes cache keys affected by a mutation.
func (c *Client) invalidate(op string, keys ...string) {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil {
			c.logger.Warn("failed to invalidate cache entry", "op", op, "key", key, "error", err)
		}
	}
}

// extractMessage pulls the display message out of an error response body.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(body)
}

// Cache key composition. Keys are deterministic per resource so mutations
// can invalidate exactly the entries they affect.

func siteInfoKey(site string) string { return "site_info_" + site }

func environmentsKey(site string) string { return "site_environments_" + site }

func commitsKey(site, env string) string { return "env_commits_" + site + "_" + env }

func domainsKey(site, env string) string { return "env_domains_" + site + "_" + env }

func metricsKey(site, env string) string { return "env_metrics_" + site + "_" + env }

func backupsKey(site, env string) string { return "env_backups_" + site + "_" + env }

func settingsKey(site string) string { return "site_settings_" + site }

func addonsKey(site string) string { return "site_addons_" + site }

func upstreamUpdatesKey(site string) string { return "site_upstream_updates_" + site }
