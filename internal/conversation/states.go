package conversation

import (
	"strings"

	"github.com/m3rciful/fuelbot/core/telegram/state"
)

// Conversation steps. The prefix before the dot names the flow.
const (
	StateOnboardingBaseRate  state.State = "onboarding.base_rate"
	StateOnboardingExtraRate state.State = "onboarding.extra_rate"
	StateTripStartOdometer   state.State = "trip.start_odometer"
	StateTripEndOdometer     state.State = "trip.end_odometer"
	StateTripCargoWeight     state.State = "trip.cargo_weight"
	StateSettingsBaseRate    state.State = "settings.base_rate"
	StateSettingsExtraRate   state.State = "settings.extra_rate"
)

// Flow names.
const (
	FlowOnboarding = "onboarding"
	FlowTrip       = "trip"
	FlowSettings   = "settings"
)

// Keys of values collected in Session.TempData.
const (
	keyStartOdometer = "start_odometer"
	keyEndOdometer   = "end_odometer"
	keyBaseRate      = "base_rate"
	keyExtraRate     = "extra_rate"
	keyCargoWeight   = "cargo_weight"
)

func flowOf(st state.State) string {
	flow, _, _ := strings.Cut(string(st), ".")
	return flow
}
