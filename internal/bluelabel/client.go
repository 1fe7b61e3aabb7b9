// Package bluelabel talks to the voucher split service and the trade API.
// Every failure comes back marked with one of the errs kinds; raw upstream
// bodies never leave this package.
package bluelabel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vouchersplit/backend/internal/errs"
	"github.com/vouchersplit/backend/internal/metrics"
)

const maxResponseBytes = 1 << 20

// errMalformed marks 2xx answers whose body could not be decoded.
var errMalformed = errs.New("malformed response")

// errorResponse covers both upstreams' error bodies.
type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// NewHTTPClient returns the client shared by both upstreams.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// do sends req and decodes a 2xx JSON body into out. op names the call in
// logs and metrics.
func do(ctx context.Context, hc *http.Client, req *http.Request, op string, out any) error {
	start := time.Now()
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		metrics.UpstreamLatency.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		log.Printf("[BLUELABEL] %s transport error after %s: %v", op, time.Since(start), err)
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamLatency.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	log.Printf("[BLUELABEL] %s -> %d in %s", op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.Mark(errs.Mark(errs.Wrapf(err, "%s: malformed response", op), errs.ErrNetwork), errMalformed)
	}
	return nil
}

func transportError(ctx context.Context, op string, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return errs.Mark(errs.Wrap(err, op), errs.ErrTimeout)
	}
	return errs.Mark(errs.Wrap(err, op), errs.ErrNetwork)
}

// statusError maps a non-2xx answer. Gateway errors are transient network
// failures; 401/403 are credential problems; everything else is a definite
// rejection carrying the upstream reason.
func statusError(op string, status int, body []byte) error {
	var e errorResponse
	_ = json.Unmarshal(body, &e)

	reason := e.Error
	if reason == "" {
		reason = e.Message
	}
	if reason == "" {
		reason = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.Markf(errs.ErrAuth, "%s: %s", op, reason)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return errs.Markf(errs.ErrTimeout, "%s: %s", op, reason)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return errs.Markf(errs.ErrNetwork, "%s: %s", op, reason)
	}
	return errs.Rejected(status, e.ErrorCode, reason)
}
