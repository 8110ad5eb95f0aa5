// Package middleware contains http.RoundTripper middleware for the API client.
//
// WHAT IS CLIENT MIDDLEWARE?
// On the server side middleware wraps an http.Handler. On the client side the
// same idea wraps an http.RoundTripper: the interface an http.Client calls to
// actually send a request.
//
// The pattern is:
//
//	func MyMiddleware(next http.RoundTripper) http.RoundTripper {
//	    return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
//	        // Do something BEFORE the request goes out
//	        resp, err := next.RoundTrip(r)
//	        // Do something AFTER the response comes back
//	        return resp, err
//	    })
//	}
//
// Middlewares stack like decorators: Chain(base, A, B) sends through A, then B, then base.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RoundTripperFunc lets an ordinary function act as an http.RoundTripper,
// the same trick http.HandlerFunc plays for handlers.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with each middleware. The first middleware is the outermost.
func Chain(base http.RoundTripper, mws ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// Logger returns a middleware that logs each outgoing request with slog.
//
// Each log line includes: method, path, status code, duration and request id.
// Transport failures (DNS, refused connection, timeout) are logged at warn level.
func Logger(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", r.Header.Get(RequestIDHeader)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("request failed", append(attrs, slog.String("error", err.Error()))...)
				return nil, err
			}

			logger.Debug("request completed", append(attrs, slog.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}
