// Package transport performs single HTTP request/response exchanges with
// the dec server and classifies the outcome.
//
// A 2xx status is success and returns the full body. Any other status is a
// failure.ErrServer carrying the decoded body. A request that produced no
// response at all is a failure.ErrNetwork carrying the transport error.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/iox"
)

// DefaultScheme is used when Config.Scheme is empty.
const DefaultScheme = "http"

// Config configures the transport.
type Config struct {
	// Host is the server domain name (server.domainName).
	Host string
	// Port is the server TCP port (server.publicPort).
	Port int
	// Scheme is http or https (default http).
	Scheme string
	// BaseURL overrides Scheme/Host/Port when set (e.g. an httptest server URL).
	BaseURL string
	// Timeout bounds a whole exchange. Zero means no timeout.
	Timeout time.Duration
}

// baseURL returns the root URL requests are issued against.
func (c Config) baseURL() (string, error) {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/"), nil
	}
	if c.Host == "" {
		return "", errors.New("transport requires a server host")
	}
	if c.Port < 1 || c.Port > 65535 {
		return "", fmt.Errorf("server port must be in 1..65535, got %d", c.Port)
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + "://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), nil
}

// Request is one exchange to perform.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is the request path including any query string.
	Path string
	// Header holds extra request headers.
	Header http.Header
	// Body is streamed to completion when non-nil; otherwise an empty body is sent.
	Body io.Reader
}

// Op returns "METHOD path", used to label errors and log lines.
func (r *Request) Op() string {
	return r.Method + " " + r.Path
}

// Response is a successful exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client sends requests to a single dec server.
// Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client from the given config.
func New(cfg Config) (*Client, error) {
	base, err := cfg.baseURL()
	if err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0, got %s", cfg.Timeout)
	}
	return &Client{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// BaseURL returns the root URL of the server.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs one exchange and blocks until the full response body has
// been received or the connection fails. It honors ctx cancellation.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	body := req.Body
	if body == nil {
		body = http.NoBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", req.Op(), err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, failure.Network(req.Op(), err)
	}
	defer iox.DiscardClose(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Network(req.Op(), fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure.Server(req.Op(), resp.StatusCode, data)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
