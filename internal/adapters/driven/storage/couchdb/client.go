package couchdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	kivikcouch "github.com/go-kivik/kivik/v4/couchdb"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
	"github.com/custodia-labs/couchlab/internal/logger"
	"github.com/custodia-labs/couchlab/internal/metrics"
)

// Ensure Client implements the interfaces.
var (
	_ driven.DocumentStore = (*Client)(nil)
	_ driven.ViewStore     = (*Client)(nil)
	_ driven.AdminStore    = (*Client)(nil)
)

// DefaultTimeout bounds a request when the settings leave it unset.
const DefaultTimeout = 30 * time.Second

// Client wraps a kivik client bound to one CouchDB database.
type Client struct {
	kivik    *kivik.Client
	db       *kivik.DB
	http     *http.Client
	base     *url.URL
	database string
	user     string
	password string
	log      *slog.Logger
	closed   atomic.Bool
}

// New creates a client for the database in conn. m may be nil.
func New(conn domain.ConnectionSettings, m *metrics.Metrics) (*Client, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(conn.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, password := conn.User, conn.Password
	if base.User != nil {
		if user == "" {
			user = base.User.Username()
		}
		if p, ok := base.User.Password(); ok && password == "" {
			password = p
		}
		base.User = nil
	}

	timeout := conn.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := logger.With("couchdb")
	rt := &transport{
		next: m.InstrumentTransport(http.DefaultTransport),
		log:  log,
	}
	if conn.RateLimit > 0 {
		burst := int(conn.RateLimit)
		if burst < 1 {
			burst = 1
		}
		rt.limiter = rate.NewLimiter(rate.Limit(conn.RateLimit), burst)
	}
	httpClient := &http.Client{Timeout: timeout, Transport: rt}

	opts := []kivik.Option{
		kivikcouch.OptionHTTPClient(httpClient),
		kivikcouch.OptionNoRequestCompression(),
	}
	if user != "" {
		opts = append(opts, kivikcouch.BasicAuth(user, password))
	}
	kc, err := kivik.New("couch", base.String(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	return &Client{
		kivik:    kc,
		db:       kc.DB(conn.Database),
		http:     httpClient,
		base:     base,
		database: conn.Database,
		user:     user,
		password: password,
		log:      log,
	}, nil
}

// Open creates a client and checks the server answers. It returns the
// server version alongside the client.
func Open(ctx context.Context, conn domain.ConnectionSettings, m *metrics.Metrics) (*Client, string, error) {
	c, err := New(conn, m)
	if err != nil {
		return nil, "", err
	}
	version, err := c.Ping(ctx)
	if err != nil {
		c.Close()
		return nil, "", err
	}
	return c, version, nil
}

// Close releases the kivik client and idle connections. Requests made
// after Close fail with domain.ErrUnavailable.
func (c *Client) Close() {
	if c.closed.Swap(true) {
		return
	}
	if err := c.kivik.Close(); err != nil {
		c.log.Debug("close", "error", err)
	}
	c.http.CloseIdleConnections()
}

// Endpoint returns the server URL without credentials.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// Database returns the bound database name.
func (c *Client) Database() string {
	return c.database
}

// ready fails once the client is closed.
func (c *Client) ready() error {
	if c.closed.Load() {
		return fmt.Errorf("%w: client is closed", domain.ErrUnavailable)
	}
	return nil
}

// wrapError converts a kivik failure into an *APIError. A cancelled or
// expired context is returned as the context error.
func (c *Client) wrapError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", operation, ctxErr)
	}
	return &APIError{
		StatusCode: kivik.HTTPStatus(err),
		Operation:  operation,
		Err:        err,
	}
}

// transport throttles requests with an optional token bucket and logs
// each response before handing off to next.
type transport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	log     *slog.Logger
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.log.Debug("request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}
