package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/core/database"
	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	cfg := coreconfig.DatabaseConfig{
		Driver: coreconfig.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "trips.db"),
	}
	require.NoError(t, database.RunMigrations(cfg))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.GetSettings(ctx, 42)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveSettings(ctx, &models.UserSettings{UserID: 42, BaseRate: 10, ExtraRatePerTon: 5}))
	got, err := s.GetSettings(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.UserSettings{UserID: 42, BaseRate: 10, ExtraRatePerTon: 5}, *got)

	require.NoError(t, s.SaveSettings(ctx, &models.UserSettings{UserID: 42, BaseRate: 11.5, ExtraRatePerTon: 0}))
	got, err = s.GetSettings(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 11.5, got.BaseRate)
	assert.Zero(t, got.ExtraRatePerTon)
}

func TestTripsAppendListDelete(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)

	first := &models.Trip{UserID: 1, Date: day, StartOdometer: 100, EndOdometer: 150, CargoWeightKg: 2000, TotalFuel: 10}
	second := &models.Trip{UserID: 1, Date: day.AddDate(0, 0, 1), StartOdometer: 150, EndOdometer: 180, TotalFuel: 3, Route: "Рига"}
	require.NoError(t, s.AppendTrip(ctx, first))
	require.NoError(t, s.AppendTrip(ctx, second))
	require.NoError(t, s.AppendTrip(ctx, &models.Trip{UserID: 2, Date: day}))
	assert.Less(t, first.ID, second.ID)

	trips, err := s.ListTrips(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, first.ID, trips[0].ID)
	assert.Equal(t, "2024-03-09", trips[0].Date.Format(dateLayout))
	assert.Equal(t, 50.0, trips[0].Distance())
	assert.Equal(t, 2.0, trips[0].CargoTonnes())
	assert.Equal(t, models.DefaultLabel, trips[0].Route)
	assert.Equal(t, models.DefaultLabel, trips[0].Vehicle)
	assert.Equal(t, "Рига", trips[1].Route)

	n, err := s.DeleteAllTrips(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	trips, err = s.ListTrips(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, trips)

	n, err = s.DeleteAllTrips(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	others, err := s.ListTrips(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestDBDateScan(t *testing.T) {
	var d dbDate
	require.NoError(t, d.Scan("2024-01-02"))
	assert.Equal(t, "2024-01-02", time.Time(d).Format(dateLayout))

	require.NoError(t, d.Scan([]byte("2024-02-03T00:00:00Z")))
	assert.Equal(t, "2024-02-03", time.Time(d).Format(dateLayout))

	ts := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, d.Scan(ts))
	assert.Equal(t, ts, time.Time(d))

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("yesterday"))
}
