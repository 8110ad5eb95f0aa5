package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport captures the request it was asked to send.
type recordingTransport struct {
	got    *http.Request
	status int
	err    error
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.got = r
	if rt.err != nil {
		return nil, rt.err
	}
	return &http.Response{
		StatusCode: rt.status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Request:    r,
	}, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRequestID_SetsHeaderOnClone(t *testing.T) {
	base := &recordingTransport{status: http.StatusOK}
	req := httptest.NewRequest(http.MethodGet, "http://api.test/prayers", nil)

	_, err := RequestID(base).RoundTrip(req)
	require.NoError(t, err)

	id := base.got.Header.Get(RequestIDHeader)
	assert.Len(t, id, 20, "xid strings are 20 characters")
	assert.Empty(t, req.Header.Get(RequestIDHeader), "caller's request must not be modified")
}

func TestRequestID_KeepsExistingID(t *testing.T) {
	base := &recordingTransport{status: http.StatusOK}
	req := httptest.NewRequest(http.MethodGet, "http://api.test/prayers", nil)
	req.Header.Set(RequestIDHeader, "from-caller")

	_, err := RequestID(base).RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "from-caller", base.got.Header.Get(RequestIDHeader))
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	base := &recordingTransport{status: http.StatusOK}
	rt := RequestID(base)

	seen := map[string]bool{}
	for range 50 {
		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/", nil))
		require.NoError(t, err)
		seen[base.got.Header.Get(RequestIDHeader)] = true
	}
	assert.Len(t, seen, 50)
}

func TestLogger_LogsCompletedRequest(t *testing.T) {
	var buf bytes.Buffer
	base := &recordingTransport{status: http.StatusNotFound}
	rt := Chain(base, RequestID, Logger(newTestLogger(&buf)))

	resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodDelete, "http://api.test/prayers/9", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "method=DELETE")
	assert.Contains(t, out, "path=/prayers/9")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "request_id="+base.got.Header.Get(RequestIDHeader))
}

func TestLogger_LogsTransportFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("connection refused")
	rt := Logger(newTestLogger(&buf))(&recordingTransport{err: boom})

	resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/prayers", nil))

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestChain_NilBaseUsesDefaultTransport(t *testing.T) {
	assert.Equal(t, http.DefaultTransport, Chain(nil))
}
