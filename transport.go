package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// transport owns the pooled connection to the base URL. The resty client is created
// on first use and released by close; a later acquire creates a fresh one.
type transport struct {
	baseURL string
	options *Options

	mu     sync.Mutex
	client *resty.Client
}

func newTransport(baseURL string, options *Options) *transport {
	return &transport{
		baseURL: baseURL,
		options: options,
	}
}

// acquire returns the live resty client, creating it if needed.
func (t *transport) acquire() (*resty.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return t.client, nil
	}

	if t.baseURL == "" {
		return nil, errors.New("base URL must be set")
	}

	if err := t.options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	o := t.options

	rc := resty.NewWithClient(&http.Client{Transport: newHTTPTransport(o.timeouts)}).
		SetBaseURL(t.baseURL).
		SetTimeout(o.timeouts.Total).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(o.redirectLimit)).
		SetRetryCount(0).
		SetLogger(o.requestLogger).
		SetHeaders(o.requestHeaders)

	if o.basicAuthUsername != "" || o.basicAuthPassword != "" {
		rc.SetBasicAuth(o.basicAuthUsername, o.basicAuthPassword)
	}

	if o.authToken != "" {
		if o.authScheme != "" {
			rc.SetAuthScheme(o.authScheme)
		}

		rc.SetAuthToken(o.authToken)
	}

	t.client = rc

	return rc, nil
}

// close releases the pooled connections. It is safe to call repeatedly and on a
// transport that was never used.
func (t *transport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return
	}

	t.client.GetClient().CloseIdleConnections()
	t.client = nil
}

// execute performs one attempt. Any HTTP response, whatever its status, is returned
// with a nil error; the error is reserved for failures where no response arrived.
func (t *transport) execute(ctx context.Context, method, path string, req *Request) (*Response, error) {
	rc, err := t.acquire()
	if err != nil {
		return nil, err
	}

	r := rc.R().SetContext(ctx)

	if len(req.headers) > 0 {
		r.SetHeaders(req.headers)
	}

	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}

	if len(req.formData) > 0 {
		r.SetFormData(req.formData)
	}

	if req.body != nil {
		r.SetBody(req.body)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// isTransportError reports whether err came from the network round trip rather than
// from building the request. http.Client wraps every round-trip failure in a
// *url.Error; url.Parse uses the same type with Op "parse".
func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Op != "parse"
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

func newHTTPTransport(timeouts Timeouts) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	if timeouts.Connect > 0 {
		tr.DialContext = (&net.Dialer{
			Timeout:   timeouts.Connect,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	if timeouts.TLSHandshake > 0 {
		tr.TLSHandshakeTimeout = timeouts.TLSHandshake
	}

	if timeouts.ResponseHeader > 0 {
		tr.ResponseHeaderTimeout = timeouts.ResponseHeader
	}

	if timeouts.IdleConn > 0 {
		tr.IdleConnTimeout = timeouts.IdleConn
	}

	return tr
}

// replayableBody buffers reader bodies so every attempt sends the same bytes.
func replayableBody(body any) (any, error) {
	switch b := body.(type) {
	case nil, []byte, string:
		return b, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}

		return data, nil
	default:
		return b, nil
	}
}
