package telegram

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/fuelbot/core/config"
)

type bodyLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *bodyLog) add(b string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, b)
}

func (l *bodyLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}

// flakyServer answers with codes in order, then 200; every request body is recorded.
func flakyServer(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32, *bodyLog) {
	t.Helper()
	var hits atomic.Int32
	bodies := &bodyLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies.add(string(b))
		n := int(hits.Add(1))
		if n <= len(codes) {
			w.WriteHeader(codes[n-1])
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, bodies
}

func TestRetryTransportGatewayErrors(t *testing.T) {
	srv, hits, bodies := flakyServer(t, http.StatusBadGateway, http.StatusServiceUnavailable)
	client := &http.Client{Transport: newRetryTransport(nil, 4, time.Millisecond)}

	resp, err := client.Post(srv.URL+"/sendMessage", "application/json", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []string{`{"text":"hi"}`, `{"text":"hi"}`, `{"text":"hi"}`}, bodies.all())
}

func TestRetryTransportGivesUp(t *testing.T) {
	srv, hits, _ := flakyServer(t, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)
	client := &http.Client{Transport: newRetryTransport(nil, 2, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRetryTransportClientErrorsAreFinal(t *testing.T) {
	srv, hits, _ := flakyServer(t, http.StatusBadRequest)
	client := &http.Client{Transport: newRetryTransport(nil, 4, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetryTransportSingleAttempt(t *testing.T) {
	srv, hits, _ := flakyServer(t, http.StatusBadGateway)
	client := &http.Client{Transport: newRetryTransport(nil, 1, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportNetworkErrors(t *testing.T) {
	srv, hits, _ := flakyServer(t)
	var dials atomic.Int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if dials.Add(1) == 1 {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}
		return http.DefaultTransport.RoundTrip(r)
	})
	client := &http.Client{Transport: newRetryTransport(base, 3, time.Millisecond)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(2), dials.Load())
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetryTransportStopsOnContext(t *testing.T) {
	srv, hits, _ := flakyServer(t, http.StatusBadGateway)
	client := &http.Client{Transport: newRetryTransport(nil, 4, time.Hour)}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuildHTTPClientCoversLongPoll(t *testing.T) {
	client := BuildHTTPClient(coreconfig.TelegramConfig{
		LongPollTimeoutSeconds: 60,
		HTTPTimeoutSeconds:     5,
		HTTPMaxAttempts:        3,
		HTTPRetryBackoffMS:     250,
	})
	assert.Equal(t, 70*time.Second, client.Timeout)

	rt, ok := client.Transport.(*retryTransport)
	require.True(t, ok)
	assert.Equal(t, 3, rt.attempts)
	assert.Equal(t, 250*time.Millisecond, rt.backoff)

	client = BuildHTTPClient(coreconfig.TelegramConfig{HTTPTimeoutSeconds: 30})
	assert.Equal(t, 30*time.Second, client.Timeout)
}
