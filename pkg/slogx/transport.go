package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/hrdesk/pkg/idx"
)

// RequestIDHeader carries the correlation id on outbound requests.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that stamps a request id on every
// outbound call and logs method, path, status and duration. It logs through
// the logger on the request context when there is one, Logger otherwise.
// The Authorization header is never logged.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
	}

	ctx := WithContext(req.Context(), FromContextOr(req.Context(), t.Logger))
	ctx = WithRequestID(ctx, reqID)

	// RoundTrippers must not mutate the caller's request
	req = req.Clone(ctx)
	req.Header.Set(RequestIDHeader, reqID)

	logger := FromContext(ctx).With(
		"method", req.Method,
		"path", req.URL.Path,
	)

	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.WarnContext(ctx, "http_request_failed", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.DebugContext(ctx, "http_request", "status", resp.StatusCode, "duration_ms", duration)
	return resp, nil
}
