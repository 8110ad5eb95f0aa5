package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID stamps every outgoing request with a fresh xid in X-Request-ID,
// so a client log line can be matched with the server's.
//
// WHY xid AND NOT UUID?
// xid is 20 characters, sortable by creation time, and needs no coordination.
// Example: "cv37rs3pp9olc6atsptg"
//
// A RoundTripper must not modify the caller's request, so we clone it first.
// A request that already carries an id keeps it.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(r)
		}
		r2 := r.Clone(r.Context())
		r2.Header.Set(RequestIDHeader, xid.New().String())
		return next.RoundTrip(r2)
	})
}
