// Package memory implements the storage contracts in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage"
)

// Op names an operation for failure injection.
type Op string

const (
	OpGetSettings    Op = "get_settings"
	OpSaveSettings   Op = "save_settings"
	OpListTrips      Op = "list_trips"
	OpAppendTrip     Op = "append_trip"
	OpDeleteAllTrips Op = "delete_trips"
)

// Store is a map-backed SettingsStore and TripStore.
type Store struct {
	mu       sync.Mutex
	settings map[int64]models.UserSettings
	trips    map[int64][]models.Trip
	nextID   int64
	failures map[Op]error
}

var (
	_ storage.SettingsStore = (*Store)(nil)
	_ storage.TripStore     = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		settings: make(map[int64]models.UserSettings),
		trips:    make(map[int64][]models.Trip),
		failures: make(map[Op]error),
	}
}

// FailOn makes every later call of op return err; a nil err clears it.
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) injected(op Op) error {
	if err := s.failures[op]; err != nil {
		return fmt.Errorf("memory %s: %w", op, err)
	}
	return nil
}

// GetSettings implements storage.SettingsStore.
func (s *Store) GetSettings(_ context.Context, userID int64) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpGetSettings); err != nil {
		return nil, err
	}
	st, ok := s.settings[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &st, nil
}

// SaveSettings implements storage.SettingsStore.
func (s *Store) SaveSettings(_ context.Context, st *models.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpSaveSettings); err != nil {
		return err
	}
	s.settings[st.UserID] = *st
	return nil
}

// ListTrips implements storage.TripStore.
func (s *Store) ListTrips(_ context.Context, userID int64) ([]models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpListTrips); err != nil {
		return nil, err
	}
	return append([]models.Trip(nil), s.trips[userID]...), nil
}

// AppendTrip implements storage.TripStore.
func (s *Store) AppendTrip(_ context.Context, t *models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpAppendTrip); err != nil {
		return err
	}
	s.nextID++
	t.ID = s.nextID
	s.trips[t.UserID] = append(s.trips[t.UserID], *t)
	return nil
}

// DeleteAllTrips implements storage.TripStore.
func (s *Store) DeleteAllTrips(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpDeleteAllTrips); err != nil {
		return 0, err
	}
	n := int64(len(s.trips[userID]))
	delete(s.trips, userID)
	return n, nil
}
