package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_IsSuccess(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 301: false, 404: false, 503: false} {
		assert.Equal(t, want, (&Response{StatusCode: code}).IsSuccess(), "status %d", code)
	}
}

func TestHandleResponse_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected map[string]any
	}{
		{"json object", `{"id": 42, "name": "alice"}`, map[string]any{"id": float64(42), "name": "alice"}},
		{"empty body", "", map[string]any{}},
		{"non-json body", "<html>ok</html>", map[string]any{}},
		{"json array is not an object", `[1, 2, 3]`, map[string]any{}},
		{"json null", `null`, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, raise := range []bool{true, false} {
				result, err := HandleResponse(&Response{StatusCode: http.StatusOK, Body: []byte(tt.body)}, raise)
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestHandleResponse_ErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("json error body", func(t *testing.T) {
		t.Parallel()

		resp := &Response{
			StatusCode: http.StatusNotFound,
			Body:       []byte(`{"message": "page not found", "code": "not_found"}`),
		}

		_, err := HandleResponse(resp, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "page not found", apiErr.Message)
		assert.Equal(t, "not_found", apiErr.Code)
		assert.Equal(t, http.StatusNotFound, apiErr.Details["status_code"])
		assert.Equal(t, string(resp.Body), apiErr.Details["raw_response"])
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode())
	})

	t.Run("json without message or code", func(t *testing.T) {
		t.Parallel()

		_, err := HandleResponse(&Response{StatusCode: http.StatusBadRequest, Body: []byte(`{"error": "bad"}`)}, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, DefaultErrorMessage, apiErr.Message)
		assert.Equal(t, CodeUnknownError, apiErr.Code)
	})

	t.Run("list of messages", func(t *testing.T) {
		t.Parallel()

		body := `{"message": ["name is required", "email is invalid"], "code": "validation_error"}`
		_, err := HandleResponse(&Response{StatusCode: http.StatusUnprocessableEntity, Body: []byte(body)}, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, []string{"name is required", "email is invalid"}, apiErr.Messages)
		assert.Equal(t, "name is required; email is invalid", apiErr.Message)
		assert.Equal(t, "validation_error", apiErr.Code)
	})

	t.Run("non-string code", func(t *testing.T) {
		t.Parallel()

		_, err := HandleResponse(&Response{StatusCode: http.StatusConflict, Body: []byte(`{"message": "conflict", "code": 4091}`)}, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "4091", apiErr.Code)
	})

	t.Run("null or empty code", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`{"message": "boom", "code": null}`, `{"message": "boom", "code": ""}`} {
			_, err := HandleResponse(&Response{StatusCode: http.StatusInternalServerError, Body: []byte(body)}, true)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr, body)
			assert.Equal(t, "boom", apiErr.Message, body)
			assert.Equal(t, CodeInternalServerError, apiErr.Code, body)
		}
	})

	t.Run("plain text body", func(t *testing.T) {
		t.Parallel()

		_, err := HandleResponse(&Response{StatusCode: http.StatusBadGateway, Body: []byte("Bad Gateway")}, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Bad Gateway", apiErr.Message)
		assert.Equal(t, CodeUnknownError, apiErr.Code)
		assert.Equal(t, "Bad Gateway", apiErr.Details["raw_response"])
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		_, err := HandleResponse(&Response{StatusCode: http.StatusInternalServerError}, true)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, DefaultErrorMessage, apiErr.Message)
		assert.Equal(t, CodeUnknownError, apiErr.Code)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Details["status_code"])
		assert.Equal(t, "", apiErr.Details["raw_response"])
	})
}

func TestHandleResponse_RaiseForStatusDisabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resp     *Response
		expected map[string]any
	}{
		{
			name:     "json error body is returned",
			resp:     &Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message": "missing"}`)},
			expected: map[string]any{"message": "missing"},
		},
		{
			name:     "plain text error body",
			resp:     &Response{StatusCode: http.StatusServiceUnavailable, Body: []byte("unavailable")},
			expected: map[string]any{},
		},
		{
			name:     "empty error body",
			resp:     &Response{StatusCode: http.StatusInternalServerError},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := HandleResponse(tt.resp, false)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHandleErrorResponse_NoopWhenNotRaising(t *testing.T) {
	t.Parallel()

	err := handleErrorResponse(&Response{StatusCode: http.StatusTeapot, Body: []byte("short and stout")}, false)
	assert.NoError(t, err)
	assert.False(t, errors.Is(err, ErrRetryExhausted))
}
