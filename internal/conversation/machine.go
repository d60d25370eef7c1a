// Package conversation runs the multi-step flows of the fuel bot: onboarding,
// new trip and settings update. It knows nothing about Telegram; every call
// returns a Reply for the transport to render.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/core/telegram/state"
	"github.com/m3rciful/fuelbot/internal/calculator"
	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage"
)

const maxLoggedInput = 32

// Deps are the collaborators of a Machine. Settings, Trips and Sessions are required.
type Deps struct {
	Settings storage.SettingsStore
	Trips    storage.TripStore
	Sessions state.Manager
	Clock    func() time.Time
	Observer Observer
	Texts    *Texts
}

// Machine drives conversations. Calls for one user are serialized; different users run in parallel.
type Machine struct {
	settings storage.SettingsStore
	trips    storage.TripStore
	sessions state.Manager
	now      func() time.Time
	obs      Observer
	texts    *Texts
	locks    *userLocks
}

// New builds a Machine, filling optional dependencies with defaults.
func New(d Deps) *Machine {
	m := &Machine{
		settings: d.Settings,
		trips:    d.Trips,
		sessions: d.Sessions,
		now:      d.Clock,
		obs:      d.Observer,
		texts:    d.Texts,
		locks:    newUserLocks(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.obs == nil {
		m.obs = nopObserver{}
	}
	if m.texts == nil {
		m.texts = DefaultTexts()
	}
	return m
}

// Texts returns the texts the machine replies with.
func (m *Machine) Texts() *Texts {
	return m.texts
}

// InProgress reports whether the user is inside a flow.
func (m *Machine) InProgress(ctx context.Context, userID int64) (bool, error) {
	return m.sessions.InProgress(ctx, userID)
}

// Handle feeds one text message into the user's active flow.
// The returned Reply is meant to be sent even when err is not nil: a
// *ValidationError or ErrPrerequisiteMissing is already answered, and a
// *StoreFailure carries the generic notice with the session left untouched.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) (Reply, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	sess, err := m.sessions.Get(ctx, userID)
	if err != nil {
		return m.storeFailure(ctx, "session_get", "", err)
	}
	if sess.Idle() {
		return Reply{}, ErrNoActiveFlow
	}

	flow := flowOf(sess.State)
	tr, err := parseStep(m.texts, sess, text)

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		m.obs.ValidationError(verr.Step)
		m.logStep(ctx, sess.State, tr.next.State, text, "invalid", slog.String("cause", verr.Reason))
		if tr.next.State != sess.State {
			if err := m.sessions.Set(ctx, userID, tr.next); err != nil {
				return m.storeFailure(ctx, "session_set", sess.State, err)
			}
		}
		return tr.reply, err
	case err != nil:
		return Reply{}, err
	}

	if tr.cancel {
		if err := m.sessions.Clear(ctx, userID); err != nil {
			return m.storeFailure(ctx, "session_clear", sess.State, err)
		}
		m.obs.FlowEvent(flow, EventCancelled)
		m.logStep(ctx, sess.State, state.StateIdle, text, "cancelled")
		return tr.reply, nil
	}

	if tr.commit == commitNone {
		if err := m.sessions.Set(ctx, userID, tr.next); err != nil {
			return m.storeFailure(ctx, "session_set", sess.State, err)
		}
		m.logStep(ctx, sess.State, tr.next.State, text, "ok")
		return tr.reply, nil
	}

	reply, err := m.commit(ctx, userID, tr)
	if err != nil {
		var sf *StoreFailure
		if errors.As(err, &sf) {
			return reply, err
		}
		// Prerequisite missing: the flow is over either way.
		m.obs.FlowEvent(flow, EventAborted)
		m.finish(ctx, userID)
		m.logStep(ctx, sess.State, state.StateIdle, text, "fail", slog.String("cause", "settings_missing"))
		return reply, err
	}
	m.obs.FlowEvent(flow, EventCompleted)
	m.finish(ctx, userID)
	m.logStep(ctx, sess.State, state.StateIdle, text, "ok")
	return reply, nil
}

func (m *Machine) commit(ctx context.Context, userID int64, tr transition) (Reply, error) {
	t := m.texts
	values := tr.collected
	switch tr.commit {
	case commitOnboarding:
		return m.saveSettings(ctx, userID, values, t.SettingsSaved)

	case commitSettings:
		if _, err := m.settings.GetSettings(ctx, userID); err != nil {
			return m.missingOrFailure(ctx, values.State, err)
		}
		return m.saveSettings(ctx, userID, values, t.SettingsUpdate)

	case commitTrip:
		st, err := m.settings.GetSettings(ctx, userID)
		if err != nil {
			return m.missingOrFailure(ctx, values.State, err)
		}
		start, _ := values.Temp(keyStartOdometer)
		end, _ := values.Temp(keyEndOdometer)
		cargo, _ := values.Temp(keyCargoWeight)
		res := calculator.Compute(start, end, cargo, st.BaseRate, st.ExtraRatePerTon)

		trip := &models.Trip{
			UserID:        userID,
			Date:          m.now(),
			StartOdometer: start,
			EndOdometer:   end,
			CargoWeightKg: cargo,
			TotalFuel:     res.TotalFuel,
			Route:         models.DefaultLabel,
			Vehicle:       models.DefaultLabel,
		}
		if err := m.trips.AppendTrip(ctx, trip); err != nil {
			return m.storeFailure(ctx, "append_trip", values.State, err)
		}
		m.obs.TripRecorded(res.TotalFuel)
		logger.Info(ctx, logger.CompFlow, "trip.recorded",
			slog.Float64("distance_km", res.Distance),
			slog.Float64("fuel_l", res.TotalFuel),
		)
		return t.menuReply(t.TripSummary(res.Distance, res.Tonnage, res.TotalFuel)), nil
	}
	return Reply{}, ErrNoActiveFlow
}

func (m *Machine) saveSettings(ctx context.Context, userID int64, values state.Session, notice string) (Reply, error) {
	base, _ := values.Temp(keyBaseRate)
	extra, _ := values.Temp(keyExtraRate)
	err := m.settings.SaveSettings(ctx, &models.UserSettings{
		UserID:          userID,
		BaseRate:        base,
		ExtraRatePerTon: extra,
	})
	if err != nil {
		return m.storeFailure(ctx, "save_settings", values.State, err)
	}
	return m.texts.menuReply(notice), nil
}

func (m *Machine) missingOrFailure(ctx context.Context, step state.State, err error) (Reply, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return m.texts.menuReply(m.texts.MissingSettings), ErrPrerequisiteMissing
	}
	return m.storeFailure(ctx, "get_settings", step, err)
}

// finish ends the flow after a commit; the data is already stored, so a failing clear is only logged.
func (m *Machine) finish(ctx context.Context, userID int64) {
	if err := m.sessions.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, logger.CompFlow, "session.clear",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// storeFailure answers with the generic notice. The caller must not touch the session afterwards.
func (m *Machine) storeFailure(ctx context.Context, op string, step state.State, err error) (Reply, error) {
	m.obs.StoreFailure(op)
	logger.Error(ctx, logger.CompFlow, "store.failure",
		slog.String("status", "fail"),
		slog.String("state", string(step)),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	kb := KeyboardCancel
	if step == "" {
		kb = KeyboardMainMenu
	}
	return Reply{Messages: []string{m.texts.TryLater}, Keyboard: kb}, &StoreFailure{Op: op, Err: err}
}

func (m *Machine) logStep(ctx context.Context, from, to state.State, input, outcome string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("flow", flowOf(from)),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
		slog.String("input", logger.SanitizeLimit(input, maxLoggedInput)),
		slog.String("outcome", outcome),
	}
	logger.Info(ctx, logger.CompFlow, "flow.step", append(attrs, extra...)...)
}
