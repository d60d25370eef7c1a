package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)

	r.FlowEvent("trip", "started")
	r.FlowEvent("trip", "started")
	r.FlowEvent("trip", "completed")
	r.ValidationError("trip.end_odometer")
	r.StoreFailure("append_trip")
	r.TripRecorded(10)
	r.ObserveUpdate("message", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.flowEvents.WithLabelValues("trip", "started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.flowEvents.WithLabelValues("trip", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validationErrors.WithLabelValues("trip.end_odometer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeFailures.WithLabelValues("append_trip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tripsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.updates.WithLabelValues("message", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.tripFuel))

	_, err = New(reg)
	assert.Error(t, err, "second registration must fail")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.FlowEvent("trip", "started")
		r.ValidationError("x")
		r.StoreFailure("x")
		r.TripRecorded(1)
		r.ObserveUpdate("message", "ok", time.Second)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)
	r.TripRecorded(3)

	healthy := true
	h := NewHandler(reg, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db unreachable")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fuelbot_trips_recorded_total 1")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServerStartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewHandler(prometheus.NewRegistry(), nil))
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
