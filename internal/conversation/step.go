package conversation

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/fuelbot/core/telegram/state"
)

type commitKind int

const (
	commitNone commitKind = iota
	commitOnboarding
	commitSettings
	commitTrip
)

// transition is the decision for one inbound message.
type transition struct {
	// next is the session to store when nothing has to be committed.
	next state.Session
	// collected holds every value of the flow when commit != commitNone.
	collected state.Session
	reply     Reply
	commit    commitKind
	cancel    bool
}

var errNotNumber = errors.New("not a number")

// parseNumber accepts a decimal comma and rejects NaN and infinities.
func parseNumber(input string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotNumber
	}
	return v, nil
}

func (t *Texts) isCancel(input string) bool {
	s := strings.TrimSpace(input)
	return s == t.CancelToken || s == "/cancel"
}

// parseStep validates input for the session's current step and decides what comes next.
// It never touches storage; a commit is left to the caller.
func parseStep(t *Texts, sess state.Session, input string) (transition, error) {
	if t.isCancel(input) {
		return transition{
			next:   state.NewSession(state.StateIdle),
			reply:  t.menuReply(t.Cancelled),
			cancel: true,
		}, nil
	}

	step := sess.State
	if !knownStep(step) {
		return transition{}, ErrNoActiveFlow
	}
	v, err := parseNumber(input)
	if err != nil {
		return t.reject(sess, input, ReasonNotNumber, t.InvalidNumber)
	}

	switch step {
	case StateOnboardingBaseRate, StateSettingsBaseRate:
		if v <= 0 {
			return t.reject(sess, input, ReasonNotPositive, t.NotPositive)
		}
		if step == StateOnboardingBaseRate {
			return advance(sess.WithTemp(keyBaseRate, v).WithState(StateOnboardingExtraRate), t.ExtraRate), nil
		}
		return advance(sess.WithTemp(keyBaseRate, v).WithState(StateSettingsExtraRate), t.NewExtraRate), nil

	case StateOnboardingExtraRate, StateSettingsExtraRate:
		if v < 0 {
			return t.reject(sess, input, ReasonNegative, t.Negative)
		}
		kind := commitOnboarding
		if step == StateSettingsExtraRate {
			kind = commitSettings
		}
		return commit(sess.WithTemp(keyExtraRate, v), kind), nil

	case StateTripStartOdometer:
		return advance(sess.WithTemp(keyStartOdometer, v).WithState(StateTripEndOdometer), t.EndOdometer), nil

	case StateTripEndOdometer:
		start, _ := sess.Temp(keyStartOdometer)
		if v < start {
			tr := transition{
				next:  state.NewSession(StateTripStartOdometer),
				reply: promptReply(t.EndBeforeStart, t.StartOdometer),
			}
			return tr, &ValidationError{Step: string(step), Input: input, Reason: ReasonEndBeforeStart}
		}
		return advance(sess.WithTemp(keyEndOdometer, v).WithState(StateTripCargoWeight), t.CargoWeight), nil

	case StateTripCargoWeight:
		if v < 0 {
			return t.reject(sess, input, ReasonNegative, t.Negative)
		}
		return commit(sess.WithTemp(keyCargoWeight, v), commitTrip), nil
	}

	return transition{}, ErrNoActiveFlow
}

func knownStep(st state.State) bool {
	switch st {
	case StateOnboardingBaseRate, StateOnboardingExtraRate,
		StateTripStartOdometer, StateTripEndOdometer, StateTripCargoWeight,
		StateSettingsBaseRate, StateSettingsExtraRate:
		return true
	}
	return false
}

// reject keeps the session as is and asks again.
func (t *Texts) reject(sess state.Session, input, reason, notice string) (transition, error) {
	return transition{next: sess, reply: promptReply(notice)},
		&ValidationError{Step: string(sess.State), Input: input, Reason: reason}
}

func advance(next state.Session, prompt string) transition {
	return transition{next: next, reply: promptReply(prompt)}
}

func commit(collected state.Session, kind commitKind) transition {
	return transition{
		next:      state.NewSession(state.StateIdle),
		collected: collected,
		commit:    kind,
	}
}
