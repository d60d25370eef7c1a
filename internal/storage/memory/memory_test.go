package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage"
)

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetSettings(ctx, 1)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveSettings(ctx, &models.UserSettings{UserID: 1, BaseRate: 10, ExtraRatePerTon: 5}))
	require.NoError(t, s.SaveSettings(ctx, &models.UserSettings{UserID: 1, BaseRate: 12, ExtraRatePerTon: 1.5}))

	got, err := s.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.BaseRate)
	assert.Equal(t, 1.5, got.ExtraRatePerTon)
}

func TestTripsOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		trip := &models.Trip{UserID: 7, Date: day, StartOdometer: float64(i * 100), EndOdometer: float64(i*100 + 50)}
		require.NoError(t, s.AppendTrip(ctx, trip))
		assert.Equal(t, int64(i+1), trip.ID)
	}
	require.NoError(t, s.AppendTrip(ctx, &models.Trip{UserID: 8, Date: day}))

	trips, err := s.ListTrips(ctx, 7)
	require.NoError(t, err)
	require.Len(t, trips, 3)
	assert.Equal(t, 0.0, trips[0].StartOdometer)
	assert.Equal(t, 200.0, trips[2].StartOdometer)

	n, err := s.DeleteAllTrips(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.DeleteAllTrips(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)

	other, err := s.ListTrips(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("disk full")

	s.FailOn(OpAppendTrip, boom)
	err := s.AppendTrip(ctx, &models.Trip{UserID: 1})
	require.ErrorIs(t, err, boom)

	s.FailOn(OpAppendTrip, nil)
	require.NoError(t, s.AppendTrip(ctx, &models.Trip{UserID: 1}))
}
