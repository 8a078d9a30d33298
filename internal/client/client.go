package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/daikinctl/internal/errors"
	"codeberg.org/mutker/daikinctl/internal/logger"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 3
	userAgent       = "daikinctl"
	maxBodyBytes    = 64 << 10
)

// Config holds the settings of a Client.
type Config struct {
	// Address is host or host:port of the appliance.
	Address string
	Timeout time.Duration
	// Attempts bounds the tries of a single fetch when the appliance drops
	// the connection.
	Attempts int
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.Address == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "missing appliance address")
	}
	if c.Timeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, c.Timeout)
	}
	if c.Attempts < 0 {
		return errFactory.WithData(ErrInvalidConfig, c.Attempts)
	}
	return nil
}

// Client fetches resources from an appliance over HTTP.
type Client struct {
	http     *http.Client
	baseURL  string
	attempts int
	logger   logger.Logger
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// New creates a Client for the appliance at cfg.Address.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}

	return &Client{
		http: &http.Client{
			Transport: &userAgentTransport{
				transport: http.DefaultTransport,
				userAgent: userAgent,
			},
			Timeout: cfg.Timeout,
		},
		baseURL:  "http://" + cfg.Address,
		attempts: cfg.Attempts,
		logger:   log.With("client"),
	}, nil
}

// Fetch requests a resource and parses its fields. A non-200 status or a
// response with ret other than OK yields an empty map.
func (c *Client) Fetch(ctx context.Context, resource string) (map[string]string, error) {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		var values map[string]string
		values, err = c.fetchOnce(ctx, resource)
		if err == nil {
			return values, nil
		}
		if !isDisconnect(err) || ctx.Err() != nil {
			break
		}
		c.logger.Debug().
			Str("resource", resource).
			Int("attempt", attempt).
			Err(err).
			Msg("Appliance closed the connection")
	}

	return nil, errors.New().Wrap(ErrRequestFailed, err).WithMessage("GET " + resource)
}

func (c *Client) fetchOnce(ctx context.Context, resource string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.TrimPrefix(resource, "/"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().
			Str("resource", resource).
			Int("status", resp.StatusCode).
			Msg("Ignoring non-200 response")
		return map[string]string{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	return ParseResponse(string(body))
}

// ParseResponse parses a "key=value,key=value" body. The ret field is
// required; anything but ret=OK yields an empty map.
func ParseResponse(body string) (map[string]string, error) {
	errFactory := errors.New()

	values := make(map[string]string)
	for _, field := range strings.Split(strings.TrimSpace(body), ",") {
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, errFactory.WithData(ErrInvalidResponse, fmt.Sprintf("malformed field %q", field))
		}
		values[key] = value
	}

	ret, ok := values["ret"]
	if !ok {
		return nil, errFactory.WithMessage(ErrInvalidResponse, "missing 'ret' field in response")
	}
	if ret != "OK" {
		return map[string]string{}, nil
	}

	if name, ok := values["name"]; ok {
		if unescaped, err := url.QueryUnescape(name); err == nil {
			values["name"] = unescaped
		}
	}

	return values, nil
}

func isDisconnect(err error) bool {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	return strings.Contains(err.Error(), "server closed idle connection")
}

// Resolver looks up host addresses. *net.Resolver implements it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Discover resolves a device identifier to an address. IP literals are
// returned as is; names go through DNS. A port suffix is preserved.
func Discover(ctx context.Context, r Resolver, deviceID string) (string, error) {
	errFactory := errors.New()

	host, port, err := net.SplitHostPort(deviceID)
	if err != nil {
		host, port = deviceID, ""
	}
	if host == "" {
		return "", errFactory.WithData(ErrDeviceNotFound, deviceID)
	}

	if net.ParseIP(host) == nil {
		addrs, err := r.LookupHost(ctx, host)
		if err != nil {
			return "", errFactory.Wrap(ErrDeviceNotFound, err).WithMessage("no device found for " + deviceID)
		}
		if len(addrs) == 0 {
			return "", errFactory.WithData(ErrDeviceNotFound, deviceID)
		}
		host = addrs[0]
	}

	if port != "" {
		return net.JoinHostPort(host, port), nil
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]", nil
	}
	return host, nil
}
