// Package sqlstore implements the storage contracts on sqlx. The same queries
// run on PostgreSQL and SQLite; placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage"
)

const dateLayout = "2006-01-02"

const (
	selectSettingsSQL = `SELECT user_id, base_rate, extra_rate_per_ton FROM user_settings WHERE user_id = ?`
	upsertSettingsSQL = `INSERT INTO user_settings (user_id, base_rate, extra_rate_per_ton, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id) DO UPDATE SET
    base_rate = excluded.base_rate,
    extra_rate_per_ton = excluded.extra_rate_per_ton,
    updated_at = excluded.updated_at`
	selectTripsSQL = `SELECT id, user_id, trip_date, start_km, end_km, cargo_weight_kg, total_fuel, route, vehicle
FROM trips WHERE user_id = ? ORDER BY id`
	insertTripSQL = `INSERT INTO trips (user_id, trip_date, start_km, end_km, cargo_weight_kg, total_fuel, route, vehicle)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	deleteTripsSQL = `DELETE FROM trips WHERE user_id = ?`
)

// Store serves settings and trips from a SQL database.
type Store struct {
	db *sqlx.DB
}

var (
	_ storage.SettingsStore = (*Store)(nil)
	_ storage.TripStore     = (*Store)(nil)
)

// New wraps an open connection; migrations must already be applied.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// GetSettings implements storage.SettingsStore.
func (s *Store) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	defer observe(ctx, "get_settings", time.Now())

	var st models.UserSettings
	err := s.db.GetContext(ctx, &st, s.db.Rebind(selectSettingsSQL), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &st, nil
}

// SaveSettings implements storage.SettingsStore.
func (s *Store) SaveSettings(ctx context.Context, st *models.UserSettings) error {
	defer observe(ctx, "save_settings", time.Now())

	_, err := s.db.ExecContext(ctx, s.db.Rebind(upsertSettingsSQL), st.UserID, st.BaseRate, st.ExtraRatePerTon)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// tripRow mirrors the trips table; trip_date comes back as DATE or TEXT depending on the driver.
type tripRow struct {
	ID            int64   `db:"id"`
	UserID        int64   `db:"user_id"`
	Date          dbDate  `db:"trip_date"`
	StartOdometer float64 `db:"start_km"`
	EndOdometer   float64 `db:"end_km"`
	CargoWeightKg float64 `db:"cargo_weight_kg"`
	TotalFuel     float64 `db:"total_fuel"`
	Route         string  `db:"route"`
	Vehicle       string  `db:"vehicle"`
}

func (r tripRow) model() models.Trip {
	return models.Trip{
		ID:            r.ID,
		UserID:        r.UserID,
		Date:          time.Time(r.Date),
		StartOdometer: r.StartOdometer,
		EndOdometer:   r.EndOdometer,
		CargoWeightKg: r.CargoWeightKg,
		TotalFuel:     r.TotalFuel,
		Route:         r.Route,
		Vehicle:       r.Vehicle,
	}
}

// ListTrips implements storage.TripStore.
func (s *Store) ListTrips(ctx context.Context, userID int64) ([]models.Trip, error) {
	defer observe(ctx, "list_trips", time.Now())

	var rows []tripRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectTripsSQL), userID); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	trips := make([]models.Trip, 0, len(rows))
	for _, r := range rows {
		trips = append(trips, r.model())
	}
	return trips, nil
}

// AppendTrip implements storage.TripStore.
func (s *Store) AppendTrip(ctx context.Context, t *models.Trip) error {
	defer observe(ctx, "append_trip", time.Now())

	route, vehicle := t.Route, t.Vehicle
	if route == "" {
		route = models.DefaultLabel
	}
	if vehicle == "" {
		vehicle = models.DefaultLabel
	}
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(insertTripSQL),
		t.UserID, t.Date.Format(dateLayout), t.StartOdometer, t.EndOdometer,
		t.CargoWeightKg, t.TotalFuel, route, vehicle,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("append trip: %w", err)
	}
	t.ID, t.Route, t.Vehicle = id, route, vehicle
	return nil
}

// DeleteAllTrips implements storage.TripStore.
func (s *Store) DeleteAllTrips(ctx context.Context, userID int64) (int64, error) {
	defer observe(ctx, "delete_trips", time.Now())

	res, err := s.db.ExecContext(ctx, s.db.Rebind(deleteTripsSQL), userID)
	if err != nil {
		return 0, fmt.Errorf("delete trips: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete trips: %w", err)
	}
	return n, nil
}

func observe(ctx context.Context, op string, start time.Time) {
	if !logger.ShouldSampleDebug() {
		return
	}
	logger.Debug(ctx, logger.CompStore, "store.query",
		slog.String("op", op),
		slog.Duration("duration", logger.Took(start)),
	)
}
