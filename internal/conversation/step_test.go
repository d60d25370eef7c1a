package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/fuelbot/core/telegram/state"
)

func TestParseNumber(t *testing.T) {
	ok := map[string]float64{
		"10":     10,
		" 7.5 ":  7.5,
		"7,5":    7.5,
		"-3":     -3,
		"1e3":    1000,
		"0":      0,
		"000012": 12,
	}
	for in, want := range ok {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "1,2,3", "NaN", "inf", "-Inf", "10 км"} {
		_, err := parseNumber(in)
		assert.Error(t, err, in)
	}
}

func TestParseStepBounds(t *testing.T) {
	texts := DefaultTexts()
	cases := []struct {
		st     state.State
		input  string
		reason string
	}{
		{StateOnboardingBaseRate, "0", ReasonNotPositive},
		{StateOnboardingBaseRate, "-1", ReasonNotPositive},
		{StateSettingsBaseRate, "0", ReasonNotPositive},
		{StateOnboardingExtraRate, "-0.1", ReasonNegative},
		{StateSettingsExtraRate, "-2", ReasonNegative},
		{StateTripCargoWeight, "-5", ReasonNegative},
	}
	for _, tc := range cases {
		sess := state.NewSession(tc.st).WithTemp(keyBaseRate, 10)
		tr, err := parseStep(texts, sess, tc.input)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "%s %q", tc.st, tc.input)
		assert.Equal(t, tc.reason, verr.Reason)
		assert.Equal(t, sess, tr.next)
		assert.Equal(t, commitNone, tr.commit)
	}

	tr, err := parseStep(texts, state.NewSession(StateOnboardingExtraRate).WithTemp(keyBaseRate, 10), "0")
	require.NoError(t, err)
	assert.Equal(t, commitOnboarding, tr.commit)
	extra, _ := tr.collected.Temp(keyExtraRate)
	assert.Zero(t, extra)
}

func TestParseStepCancelBeatsParsing(t *testing.T) {
	texts := DefaultTexts()
	tr, err := parseStep(texts, state.NewSession(StateTripEndOdometer).WithTemp(keyStartOdometer, 5), " Отменить ")
	require.NoError(t, err)
	assert.True(t, tr.cancel)
	assert.True(t, tr.next.Idle())
}

func TestParseStepUnknownState(t *testing.T) {
	_, err := parseStep(DefaultTexts(), state.NewSession("legacy.step"), "10")
	assert.ErrorIs(t, err, ErrNoActiveFlow)
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "10.0", formatRate(10))
	assert.Equal(t, "8.5", formatRate(8.5))
	assert.Equal(t, "0.0", formatRate(0))
}
