package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultRedirectLimit   = 10
	DefaultRequestIDHeader = "X-Request-ID"
)

type Option func(*Options)

// Timeouts breaks the request timeout down per phase. Zero fields are left to the
// transport defaults; Total bounds a whole attempt including reading the body.
type Timeouts struct {
	Connect        time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
	Total          time.Duration
}

type Options struct {
	retryCount        int
	retryWaitTime     time.Duration
	retryMaxWaitTime  time.Duration
	backoffMultiplier float64
	timeouts          Timeouts
	redirectLimit     int
	requestLogger     RequestLogger
	retryPolicy       func(*Response, error) bool
	requestHeaders    map[string]string
	requestIDHeader   string
	basicAuthUsername string
	basicAuthPassword string
	authScheme        string
	authToken         string
	tracerProvider    trace.TracerProvider
	meterProvider     metric.MeterProvider
}

func newClientOptions() *Options {
	return &Options{
		retryCount:        DefaultRetryCount,
		retryWaitTime:     DefaultRetryWaitTime,
		retryMaxWaitTime:  DefaultRetryMaxWaitTime,
		backoffMultiplier: DefaultBackoffMultiplier,
		timeouts:          Timeouts{Total: DefaultTimeout},
		redirectLimit:     DefaultRedirectLimit,
		requestLogger:     &NoopLogger{},
		retryPolicy:       DefaultRetryPolicy,
		requestIDHeader:   DefaultRequestIDHeader,
		requestHeaders: map[string]string{
			"Accept": "application/json",
		},
	}
}

// WithRetryCount sets the maximum number of retries after the first attempt.
func WithRetryCount(count int) Option {
	return func(o *Options) {
		if count >= 0 {
			o.retryCount = count
		}
	}
}

// WithRetryWaitTime sets the delay before the first retry.
func WithRetryWaitTime(waitTime time.Duration) Option {
	return func(o *Options) {
		if waitTime > 0 {
			o.retryWaitTime = waitTime
		}
	}
}

// WithRetryMaxWaitTime caps the exponential delay. Retry-After hints are not capped.
func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(o *Options) {
		if maxWaitTime > 0 {
			o.retryMaxWaitTime = maxWaitTime
		}
	}
}

func WithBackoffMultiplier(multiplier float64) Option {
	return func(o *Options) {
		if multiplier >= 1 {
			o.backoffMultiplier = multiplier
		}
	}
}

// WithTimeout sets the overall timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.timeouts = Timeouts{Total: timeout}
		}
	}
}

// WithTimeouts sets a per-phase timeout breakdown. Negative fields are ignored.
func WithTimeouts(timeouts Timeouts) Option {
	return func(o *Options) {
		if timeouts.Connect < 0 || timeouts.TLSHandshake < 0 || timeouts.ResponseHeader < 0 ||
			timeouts.IdleConn < 0 || timeouts.Total < 0 {
			return
		}

		o.timeouts = timeouts
	}
}

func WithRedirectLimit(limit int) Option {
	return func(o *Options) {
		if limit > 0 {
			o.redirectLimit = limit
		}
	}
}

func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

func WithRetryPolicy(policy func(*Response, error) bool) Option {
	return func(o *Options) {
		if policy != nil {
			o.retryPolicy = policy
		}
	}
}

func WithRequestHeader(header, value string) Option {
	return func(o *Options) {
		header = strings.TrimSpace(header)

		if header == "" {
			return
		}

		o.requestHeaders[header] = value
	}
}

// WithRequestIDHeader sets the header carrying the per-call request ID. An empty
// name disables request ID generation.
func WithRequestIDHeader(header string) Option {
	return func(o *Options) {
		o.requestIDHeader = strings.TrimSpace(header)
	}
}

func WithBasicAuth(username, password string) Option {
	return func(o *Options) {
		o.basicAuthUsername = username
		o.basicAuthPassword = password
	}
}

func WithAuthScheme(scheme string) Option {
	return func(o *Options) {
		o.authScheme = scheme
	}
}

func WithAuthToken(token string) Option {
	return func(o *Options) {
		o.authToken = token
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// Validate checks the combined options. It is called when the client opens its
// connection.
func (o *Options) Validate() error {
	if o.retryCount < 0 {
		return errors.New("retryCount must be non-negative")
	}

	if o.retryWaitTime <= 0 {
		return errors.New("retryWaitTime must be positive")
	}

	if o.retryMaxWaitTime < o.retryWaitTime {
		return fmt.Errorf("retryMaxWaitTime (%v) must be greater than or equal to retryWaitTime (%v)", o.retryMaxWaitTime, o.retryWaitTime)
	}

	if o.backoffMultiplier < 1 {
		return fmt.Errorf("backoffMultiplier (%v) must be at least 1", o.backoffMultiplier)
	}

	if o.timeouts.Total < 0 {
		return errors.New("timeout must be non-negative")
	}

	if o.requestLogger == nil {
		return errors.New("requestLogger must not be nil")
	}

	if o.retryPolicy == nil {
		return errors.New("retryPolicy must not be nil")
	}

	if (o.basicAuthUsername != "" || o.basicAuthPassword != "") && o.authToken != "" {
		return errors.New("cannot use both basic auth and token auth - choose one")
	}

	return nil
}
