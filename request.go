package client

import (
	"net/url"
	"strings"
)

// Request holds the per-call settings collected from [RequestOption] values.
type Request struct {
	raiseForStatus bool
	handler        ResponseHandler
	headers        map[string]string
	query          url.Values
	formData       map[string]string
	body           any
}

type RequestOption func(*Request)

func newRequest(opts []RequestOption) *Request {
	r := &Request{
		raiseForStatus: true,
		headers:        map[string]string{},
		query:          url.Values{},
	}

	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}

	return r
}

// WithRaiseForStatus controls whether an error response is returned as an [*Error].
// When false the body of an error response is returned as the result instead.
func WithRaiseForStatus(raise bool) RequestOption {
	return func(r *Request) {
		r.raiseForStatus = raise
	}
}

// WithResponseHandler replaces [HandleResponse] for a single call.
func WithResponseHandler(handler ResponseHandler) RequestOption {
	return func(r *Request) {
		r.handler = handler
	}
}

func WithHeader(header, value string) RequestOption {
	return func(r *Request) {
		header = strings.TrimSpace(header)
		if header != "" {
			r.headers[header] = value
		}
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range headers {
			WithHeader(k, v)(r)
		}
	}
}

func WithQuery(query url.Values) RequestOption {
	return func(r *Request) {
		for k, vv := range query {
			for _, v := range vv {
				r.query.Add(k, v)
			}
		}
	}
}

func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		r.query.Add(key, value)
	}
}

// WithBody sets the request body. Structs and maps are sent as JSON; io.Reader
// bodies are read once and replayed on every attempt.
func WithBody(body any) RequestOption {
	return func(r *Request) {
		r.body = body
	}
}

func WithFormData(data map[string]string) RequestOption {
	return func(r *Request) {
		r.formData = data
	}
}

func (r *Request) header(name string) string {
	for k, v := range r.headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}

	return ""
}
