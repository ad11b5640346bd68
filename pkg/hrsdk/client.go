package hrsdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/hrdesk/pkg/slogx"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every request. In-flight requests are never cancelled
// by session teardown, they just time out.
const DefaultTimeout = 15 * time.Second

// Client talks to the HR backend. It provides the unauthenticated auth
// endpoints and hands out Sessions for everything that needs a bearer token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Limiter, when set, is waited on before each request. Keeps a
	// misbehaving refresh loop from hammering the backend.
	Limiter *rate.Limiter

	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout overrides DefaultTimeout, also on a client passed with
// WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit allows rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger logs every outbound request through slogx.Transport,
// whichever HTTP client ends up being used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the backend at baseURL. Options apply in
// any order; a client passed with WithHTTPClient is copied, never modified.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.HTTPClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.logger != nil {
		hc.Transport = slogx.NewTransport(hc.Transport, c.logger)
	}
	c.HTTPClient = &hc
	return c
}

// WithTokenSource returns a Session that asks ts for a token on every call.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Session {
	return &Session{client: c, tokens: ts}
}

// WithAccessToken returns a Session pinned to a single access token. Used
// while a login is being applied and the new token isn't live yet.
func (c *Client) WithAccessToken(accessToken string) *Session {
	return c.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}
