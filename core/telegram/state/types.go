package state

import (
	"context"
	"errors"
	"maps"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// ErrUnavailable wraps backend failures so callers can tell them from missing sessions.
var ErrUnavailable = errors.New("state: backend unavailable")

// Session stores conversation state and the values collected so far.
// Sessions are values: mutate through WithState and WithTemp, which copy.
type Session struct {
	State     State              `json:"state"`
	TempData  map[string]float64 `json:"temp,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewSession starts a session in st with no collected values.
func NewSession(st State) Session {
	return Session{State: st}
}

// Idle reports whether the session has no active conversation.
func (s Session) Idle() bool {
	return s.State == "" || s.State == StateIdle
}

// Temp returns a collected value.
func (s Session) Temp(key string) (float64, bool) {
	v, ok := s.TempData[key]
	return v, ok
}

// WithTemp returns a copy of s with key set to v.
func (s Session) WithTemp(key string, v float64) Session {
	out := s.Clone()
	if out.TempData == nil {
		out.TempData = make(map[string]float64, 1)
	}
	out.TempData[key] = v
	return out
}

// WithState returns a copy of s moved to st, keeping collected values.
func (s Session) WithState(st State) Session {
	out := s.Clone()
	out.State = st
	return out
}

// Clone deep-copies the collected values.
func (s Session) Clone() Session {
	out := s
	if s.TempData != nil {
		out.TempData = maps.Clone(s.TempData)
	}
	return out
}

// Manager stores one session per user. Get on an unknown user returns an idle session.
type Manager interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
	// InProgress reports whether the user has a non-idle session.
	InProgress(ctx context.Context, userID int64) (bool, error)
}
