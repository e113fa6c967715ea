package obs

import (
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that emits one structured access event per outbound request
// and tags it with the run correlation from the request context.
type Transport struct {
	Pkg  string
	Base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(pkg string, base http.RoundTripper) *Transport {
	return &Transport{Pkg: pkg, Base: base}
}

// NewClient returns an http.Client whose transport logs through Transport.
func NewClient(pkg string, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: NewTransport(pkg, base)}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip sets X-Request-Id from the run id when absent and logs the exchange at debug level.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if req.Header.Get("X-Request-Id") == "" {
		if runID := CorrelationFromContext(ctx).RunID; runID != "" {
			req = req.Clone(ctx)
			req.Header.Set("X-Request-Id", runID)
		}
	}

	start := time.Now()
	resp, err := t.base().RoundTrip(req)
	durMS := float64(time.Since(start).Microseconds()) / 1000.0

	reqBytes := int64(0)
	if req.ContentLength > 0 {
		reqBytes = req.ContentLength
	}
	logger := From(ctx, t.Pkg)
	if err != nil {
		logger.Debug("http_client",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"dur_ms", durMS,
			"req_bytes", reqBytes,
			"error", err,
		)
		return nil, err
	}
	logger.Debug("http_client",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"dur_ms", durMS,
		"req_bytes", reqBytes,
		"resp_bytes", resp.ContentLength,
	)
	return resp, nil
}
