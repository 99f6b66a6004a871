// Package rest provides the JSON POST transport used for the venue's info
// and exchange endpoints.
package rest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/banky/hl-agent/constants"
	"github.com/go-resty/resty/v2"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

type Client struct {
	baseUrl string
	timeout mo.Option[uint]
	http    *resty.Client
	logger  *zap.Logger
}

// ClientInterface defines the contract for REST API calls
type ClientInterface interface {
	Post(ctx context.Context, path string, body any, result any) error
	IsMainnet() bool
}

type Config struct {
	// BaseUrl is the base URL for the venue API
	// If none is provided, the mainnet url will be used
	BaseUrl string
	// Timeout is the timeout for network requests in seconds
	// If none is provided, no timeout will be enforced
	Timeout uint
	// Logger receives one debug line per request. Defaults to a no-op logger
	Logger *zap.Logger
}

// New creates a new client instance with the
// provided configuration.
func New(c Config) *Client {
	baseUrl := strings.TrimRight(c.BaseUrl, "/")
	var timeout mo.Option[uint]

	if baseUrl == "" {
		baseUrl = constants.MAINNET_API_URL
	}
	if c.Timeout != 0 {
		timeout = mo.Some(c.Timeout)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Signed actions must never be replayed by the transport, so retries
	// stay disabled.
	httpClient := resty.
		New().
		SetRetryCount(0).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		baseUrl: baseUrl,
		timeout: timeout,
		http:    httpClient,
		logger:  logger,
	}
}

// BaseUrl returns the API root the client posts to.
func (c *Client) BaseUrl() string {
	return c.baseUrl
}

// IsMainnet reports whether the client targets the mainnet API.
func (c *Client) IsMainnet() bool {
	return c.baseUrl == constants.MAINNET_API_URL
}

// Post sends a POST request to the specified path with the provided body and
// decodes a successful response into result.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body any,
	result any,
) error {
	url := c.baseUrl + path

	if timeout, ok := c.timeout.Get(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return err
	}

	c.logger.Debug("rest post",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := handleException(resp.StatusCode(), resp.Header(), resp.Body()); err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return &DecodeError{Path: path, Body: string(resp.Body()), Err: err}
	}

	return nil
}
