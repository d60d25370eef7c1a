package telegram

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	keepAlive       = 30 * time.Second
	tlsHandshake    = 5 * time.Second
	idleConnTimeout = 90 * time.Second
	// The server holds getUpdates open for the long poll timeout, so the
	// client deadline must leave room on top of it.
	longPollMargin = 10 * time.Second
	maxRetryDelay  = 30 * time.Second
)

// BuildHTTPClient returns the Bot API client configured by the telegram section.
func BuildHTTPClient(cfg coreconfig.TelegramConfig) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ExpectContinueTimeout: time.Second,
	}

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	if lp := time.Duration(cfg.LongPollTimeoutSeconds)*time.Second + longPollMargin; timeout < lp {
		timeout = lp
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newRetryTransport(transport, cfg.HTTPMaxAttempts, time.Duration(cfg.HTTPRetryBackoffMS)*time.Millisecond),
	}
}

// retryTransport repeats Bot API calls that failed on the network or hit a
// gateway error. Request bodies are replayed through GetBody.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func newRetryTransport(base http.RoundTripper, attempts int, backoff time.Duration) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if attempts < 1 {
		attempts = 1
	}
	return &retryTransport{base: base, attempts: attempts, backoff: backoff}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	delay := t.backoff

	for attempt := 1; ; attempt++ {
		try := req
		if attempt > 1 {
			var err error
			if try, err = rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(try)
		last := attempt >= t.attempts || (req.Body != nil && req.GetBody == nil)
		if !retryable(resp, err) || last {
			return resp, err
		}
		if resp != nil {
			// Drain so the connection goes back to the pool.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		logRetry(ctx, req, attempt, resp, err, delay)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		next.Body = body
	}
	return next, nil
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return netutil.ShouldRetry(err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func logRetry(ctx context.Context, req *http.Request, attempt int, resp *http.Response, err error, delay time.Duration) {
	attrs := []slog.Attr{
		slog.String("status", "retry"),
		slog.String("method", req.Method),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	} else {
		attrs = append(attrs, slog.Int("http_status", resp.StatusCode))
	}
	// The URL path carries the bot token, so only the method is logged.
	logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "api.retry", attrs...)
}
