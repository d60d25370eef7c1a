// Package storage declares the persistence contracts for settings and trips.
package storage

import (
	"context"
	"errors"

	"github.com/m3rciful/fuelbot/internal/models"
)

// ErrNotFound is returned when a user has no settings yet.
var ErrNotFound = errors.New("storage: not found")

// SettingsStore keeps one settings record per user.
type SettingsStore interface {
	// GetSettings returns ErrNotFound when the user never finished onboarding.
	GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	// SaveSettings inserts or overwrites the user's record.
	SaveSettings(ctx context.Context, s *models.UserSettings) error
}

// TripStore is an append-only trip log with bulk deletion per user.
type TripStore interface {
	// ListTrips returns the user's trips in creation order.
	ListTrips(ctx context.Context, userID int64) ([]models.Trip, error)
	// AppendTrip stores t and sets t.ID.
	AppendTrip(ctx context.Context, t *models.Trip) error
	// DeleteAllTrips removes every trip of the user and reports how many were removed.
	DeleteAllTrips(ctx context.Context, userID int64) (int64, error)
}
