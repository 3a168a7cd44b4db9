package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client issues requests against a single base URL, retrying transient failures.
// A Client is safe for concurrent use; all calls share one pooled connection.
type Client struct {
	baseURL     string
	options     *Options
	transport   *transport
	instruments *instruments
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Client for baseURL. The underlying connection is created lazily on
// the first request, at which point the configuration is validated.
func New(baseURL string, opts ...Option) *Client {
	options := newClientOptions()

	for _, o := range opts {
		if o != nil {
			o(options)
		}
	}

	return &Client{
		baseURL:     baseURL,
		options:     options,
		transport:   newTransport(baseURL, options),
		instruments: newInstruments(options),
		sleep:       sleepContext,
	}
}

// Close releases the pooled connection. It is idempotent, and the client remains
// usable: the next request opens a new connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.transport.close()

	return nil
}

// With calls fn with the client and closes the client when fn returns or panics.
func (c *Client) With(fn func(*Client) error) error {
	defer func() { _ = c.Close() }()

	return fn(c)
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodGet, endpoint, opts...)
}

func (c *Client) Post(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodPost, endpoint, opts...)
}

func (c *Client) Patch(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodPatch, endpoint, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodPut, endpoint, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, opts...)
}

func (c *Client) Options(ctx context.Context, endpoint string, opts ...RequestOption) (map[string]any, error) {
	return c.Do(ctx, http.MethodOptions, endpoint, opts...)
}

// Do performs a request with retries and passes the final response to the
// response handler ([HandleResponse] unless overridden with [WithResponseHandler]).
//
// HTTP error responses are never turned into errors by the retry loop itself; a
// persistent 503 is handed to the response handler like any other response. An
// [*Error] with code [CodeRequestError] is returned only when no attempt produced a
// response. Errors raised while building the request, such as a body that cannot
// be encoded, are returned at once without retrying. Cancelling ctx abandons the
// call and returns the context error. An empty endpoint requests the base URL.
func (c *Client) Do(ctx context.Context, method, endpoint string, opts ...RequestOption) (result map[string]any, err error) {
	if c == nil {
		return nil, errors.New("http client is nil")
	}

	method = strings.ToUpper(method)
	req := newRequest(opts)

	if req.body, err = replayableBody(req.body); err != nil {
		return nil, err
	}

	if h := c.options.requestIDHeader; h != "" && req.header(h) == "" {
		req.headers[h] = uuid.NewString()
	}

	ctx, span := c.instruments.start(ctx, method, endpoint)

	var resp *Response
	var attempts int

	defer func() { c.instruments.finish(span, resp, attempts, err) }()

	resp, attempts, err = c.performRequest(ctx, method, endpoint, req)
	if err != nil {
		return nil, err
	}

	handler := req.handler
	if handler == nil {
		handler = HandleResponse
	}

	return handler(resp, req.raiseForStatus)
}

// performRequest runs attempts 0..retryCount. It returns the first successful or
// non-retryable response, otherwise the last response received. It fails when every
// attempt failed at the transport level, or at once when the request cannot be built.
func (c *Client) performRequest(ctx context.Context, method, endpoint string, req *Request) (*Response, int, error) {
	if _, err := c.transport.acquire(); err != nil {
		return nil, 0, err
	}

	log := c.options.requestLogger
	requestID := req.header(c.options.requestIDHeader)

	var lastResponse *Response
	var lastErr error

	attempts := 0

	for attempt := 0; attempt <= c.options.retryCount; attempt++ {
		attempts++
		c.instruments.attempt(ctx, method)
		log.Debugf("%s %s [%s]: attempt %d of %d", method, endpoint, requestID, attempt+1, c.options.retryCount+1)

		resp, err := c.transport.execute(ctx, method, endpoint, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, attempts, ctxErr
			}

			if !isTransportError(err) {
				log.Errorf("%s %s [%s]: failed to build request: %v", method, endpoint, requestID, err)
				return nil, attempts, fmt.Errorf("failed to build request: %w", err)
			}

			if !c.shouldRetry(nil, err, attempt) {
				lastErr = err
				break
			}

			delay := c.calculateDelay(attempt, "")
			log.Warnf("%s %s [%s]: request failed: %v; retrying in %s", method, endpoint, requestID, err, delay)
			c.instruments.retry(ctx, method, nil)

			if err := c.sleep(ctx, delay); err != nil {
				return nil, attempts, err
			}

			continue
		}

		lastResponse = resp

		if resp.IsSuccess() || !c.shouldRetry(resp, nil, attempt) {
			return resp, attempts, nil
		}

		delay := c.calculateDelay(attempt, resp.Header.Get("Retry-After"))
		log.Warnf("%s %s [%s]: received status %d; retrying in %s", method, endpoint, requestID, resp.StatusCode, delay)
		c.instruments.retry(ctx, method, resp)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, attempts, err
		}
	}

	if lastResponse != nil {
		return lastResponse, attempts, nil
	}

	if lastErr != nil {
		log.Errorf("%s %s [%s]: request failed after %d attempts: %v", method, endpoint, requestID, attempts, lastErr)
		return nil, attempts, newRequestError(lastErr)
	}

	return nil, attempts, newRetryExhaustedError()
}
