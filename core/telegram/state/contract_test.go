package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testState State = "trip.end_odometer"

// runManagerContract checks behaviour every Manager implementation shares.
func runManagerContract(t *testing.T, m Manager) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown user is idle", func(t *testing.T) {
		s, err := m.Get(ctx, 404)
		require.NoError(t, err)
		assert.True(t, s.Idle())
		assert.False(t, inProgress(t, m, 404))
	})

	t.Run("set and get round trip", func(t *testing.T) {
		in := NewSession(testState).WithTemp("start_odometer", 100.5)
		require.NoError(t, m.Set(ctx, 1, in))

		out, err := m.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, testState, out.State)
		v, ok := out.Temp("start_odometer")
		assert.True(t, ok)
		assert.Equal(t, 100.5, v)
		assert.True(t, inProgress(t, m, 1))
	})

	t.Run("returned session is a copy", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, 2, NewSession(testState).WithTemp("k", 1)))
		s, err := m.Get(ctx, 2)
		require.NoError(t, err)
		s.TempData["k"] = 99

		again, err := m.Get(ctx, 2)
		require.NoError(t, err)
		v, _ := again.Temp("k")
		assert.Equal(t, 1.0, v)
	})

	t.Run("idle set clears", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, 3, NewSession(testState)))
		require.NoError(t, m.Set(ctx, 3, NewSession(StateIdle)))
		assert.False(t, inProgress(t, m, 3))
	})

	t.Run("clear removes session", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, 4, NewSession(testState)))
		require.NoError(t, m.Clear(ctx, 4))
		s, err := m.Get(ctx, 4)
		require.NoError(t, err)
		assert.True(t, s.Idle())
	})

	t.Run("users are isolated", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, 5, NewSession(testState)))
		assert.False(t, inProgress(t, m, 6))
	})
}

func inProgress(t *testing.T, m Manager, userID int64) bool {
	t.Helper()
	active, err := m.InProgress(context.Background(), userID)
	require.NoError(t, err)
	return active
}

func TestSessionWithTempCopies(t *testing.T) {
	base := NewSession(testState).WithTemp("a", 1)
	next := base.WithTemp("b", 2).WithState(StateIdle)

	_, hasB := base.Temp("b")
	assert.False(t, hasB)
	assert.Equal(t, testState, base.State)
	assert.True(t, next.Idle())
	assert.Len(t, next.TempData, 2)
}
