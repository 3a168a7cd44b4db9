// Package client provides a resilient HTTP client bound to a single base URL.
//
// The client wraps [github.com/go-resty/resty/v2] for transport, retries
// transient failures with capped exponential backoff, and turns responses into
// decoded JSON objects or structured [*Error] values.
//
// # Basic Usage
//
//	c := client.New("https://api.example.com",
//	    client.WithAuthToken("my-token"),
//	    client.WithRetryCount(5),
//	)
//	defer c.Close()
//
//	user, err := c.Get(ctx, "users/42", client.WithQueryParam("expand", "teams"))
//	if err != nil {
//	    var apiErr *client.Error
//	    if errors.As(err, &apiErr) && apiErr.Code == "not_found" {
//	        // ...
//	    }
//	    log.Fatal(err)
//	}
//
// The pooled connection is created on the first request and released by
// [Client.Close]. Close is idempotent and the client stays usable afterwards.
// [Client.With] runs a function and closes the client on every exit path.
//
// # Configuration
//
// All configuration is supplied as [Option] functions passed to [New].
// Invalid values are silently ignored and the default is retained;
// configuration is validated when the first request opens the connection.
// [LoadConfig] reads the same settings from a YAML file and HTTPCLIENT_*
// environment variables; pass the result to [NewFromConfig].
//
// # Retry Behaviour
//
// A call makes at most retry count + 1 attempts. [DefaultRetryPolicy] retries
// transport failures and HTTP 429, 500, 502, 503 and 504. The delay before
// retry n (zero-based) is wait time * multiplier^n, capped at the max wait time
// (1s, 2s, 4s, ... up to 60s by default). A Retry-After header in seconds or as
// an HTTP-date overrides the schedule and is not capped.
//
// When retries run out on an error response, that response is still handed to
// the response handler; whether it becomes an error is decided there, by the
// raise-for-status flag. Only a call where no attempt produced any response
// fails with code "request_error".
//
// # Responses
//
// [HandleResponse] decodes the body as a JSON object. Empty and non-JSON
// success bodies yield an empty map. Error responses yield an [*Error] built
// from the "message" and "code" fields of the body, unless the call passed
// WithRaiseForStatus(false). Supply a [ResponseHandler] via
// [WithResponseHandler] to decode responses differently.
//
// # Logging
//
// Implement [RequestLogger] and supply it via [WithRequestLogger] to
// integrate with your logging library, or wrap a zerolog logger with
// [NewZerologLogger]. The default [NoopLogger] discards all log output.
//
// # Observability
//
// Each call is traced as one client span and counted per attempt through the
// global OpenTelemetry providers, or those given to [WithTracerProvider] and
// [WithMeterProvider].
package client
