package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the result of a single request attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// ResponseHandler turns the final response of a call into its result. A handler may
// return a nil map to signal "no result".
type ResponseHandler func(resp *Response, raiseForStatus bool) (map[string]any, error)

// HandleResponse is the default [ResponseHandler].
//
// Error responses are converted into an [*Error] when raiseForStatus is true. Otherwise
// the body is decoded as a JSON object; an empty or non-object body yields an empty map.
func HandleResponse(resp *Response, raiseForStatus bool) (map[string]any, error) {
	if !resp.IsSuccess() {
		if err := handleErrorResponse(resp, raiseForStatus); err != nil {
			return nil, err
		}
	}

	if len(resp.Body) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Body, &data); err != nil || data == nil {
		if raiseForStatus && !resp.IsSuccess() {
			return nil, handleErrorResponse(resp, true)
		}

		return map[string]any{}, nil
	}

	return data, nil
}

// handleErrorResponse builds the structured error for an error response. It returns
// nil when raiseForStatus is false.
func handleErrorResponse(resp *Response, raiseForStatus bool) error {
	if !raiseForStatus {
		return nil
	}

	details := map[string]any{
		"status_code":  resp.StatusCode,
		"raw_response": resp.Text(),
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Body, &data); err != nil || data == nil {
		return NewError(resp.Text(), CodeUnknownError, details)
	}

	// An explicit null code falls through to NewError's default, like an empty one.
	code := CodeUnknownError
	if v, ok := data["code"]; ok {
		code = ""
		if v != nil {
			code = fmt.Sprint(v)
		}
	}

	switch msg := data["message"].(type) {
	case nil:
		return NewError(DefaultErrorMessage, code, details)
	case string:
		return NewError(msg, code, details)
	case []any:
		messages := make([]string, 0, len(msg))
		for _, m := range msg {
			messages = append(messages, fmt.Sprint(m))
		}

		return newErrorFromMessages(messages, code, details)
	default:
		return NewError(fmt.Sprint(msg), code, details)
	}
}
