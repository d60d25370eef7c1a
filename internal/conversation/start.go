package conversation

import (
	"context"
	"log/slog"

	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/core/telegram/state"
)

// StartOnboarding greets a first-time user and asks for the base rate.
func (m *Machine) StartOnboarding(ctx context.Context, userID int64) (Reply, error) {
	return m.begin(ctx, userID, StateOnboardingBaseRate, promptReply(m.texts.FirstRun))
}

// StartTrip asks for the start odometer reading.
func (m *Machine) StartTrip(ctx context.Context, userID int64) (Reply, error) {
	return m.begin(ctx, userID, StateTripStartOdometer, promptReply(m.texts.StartOdometer))
}

// StartSettingsUpdate shows the current rates and asks for a new base rate.
// Users without settings get ErrPrerequisiteMissing and the main menu.
func (m *Machine) StartSettingsUpdate(ctx context.Context, userID int64) (Reply, error) {
	st, err := m.settings.GetSettings(ctx, userID)
	if err != nil {
		return m.missingOrFailure(ctx, "", err)
	}
	return m.begin(ctx, userID, StateSettingsBaseRate, promptReply(m.texts.CurrentSettings(st)))
}

// Cancel drops any active flow and shows the menu.
func (m *Machine) Cancel(ctx context.Context, userID int64) (Reply, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	sess, err := m.sessions.Get(ctx, userID)
	if err != nil {
		return m.storeFailure(ctx, "session_get", "", err)
	}
	if !sess.Idle() {
		if err := m.sessions.Clear(ctx, userID); err != nil {
			return m.storeFailure(ctx, "session_clear", sess.State, err)
		}
		m.obs.FlowEvent(flowOf(sess.State), EventCancelled)
		m.logStep(ctx, sess.State, state.StateIdle, m.texts.CancelToken, "cancelled")
	}
	return m.texts.menuReply(m.texts.Cancelled), nil
}

// Reset silently abandons the active flow, if any.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	unlock := m.locks.lock(userID)
	defer unlock()

	sess, err := m.sessions.Get(ctx, userID)
	if err != nil {
		return &StoreFailure{Op: "session_get", Err: err}
	}
	if sess.Idle() {
		return nil
	}
	if err := m.sessions.Clear(ctx, userID); err != nil {
		return &StoreFailure{Op: "session_clear", Err: err}
	}
	m.obs.FlowEvent(flowOf(sess.State), EventCancelled)
	logger.Info(ctx, logger.CompFlow, "flow.reset",
		slog.String("flow", flowOf(sess.State)),
		slog.String("state", string(sess.State)),
	)
	return nil
}

func (m *Machine) begin(ctx context.Context, userID int64, st state.State, reply Reply) (Reply, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	if err := m.sessions.Set(ctx, userID, state.NewSession(st)); err != nil {
		return m.storeFailure(ctx, "session_set", "", err)
	}
	m.obs.FlowEvent(flowOf(st), EventStarted)
	logger.Info(ctx, logger.CompFlow, "flow.started",
		slog.String("flow", flowOf(st)),
		slog.String("next_state", string(st)),
	)
	return reply, nil
}
