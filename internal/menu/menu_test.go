package menu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/fuelbot/core/telegram/state"
	"github.com/m3rciful/fuelbot/internal/conversation"
	"github.com/m3rciful/fuelbot/internal/models"
	"github.com/m3rciful/fuelbot/internal/storage/memory"
)

const userID int64 = 77

type failureCounter struct{ ops []string }

func (f *failureCounter) StoreFailure(op string) { f.ops = append(f.ops, op) }

type fixture struct {
	p        *Presenter
	m        *conversation.Machine
	store    *memory.Store
	sessions *state.MemoryManager
	texts    *conversation.Texts
	failures *failureCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		sessions: state.NewMemoryManager(),
		texts:    conversation.DefaultTexts(),
		failures: &failureCounter{},
	}
	f.m = conversation.New(conversation.Deps{
		Settings: f.store,
		Trips:    f.store,
		Sessions: f.sessions,
		Texts:    f.texts,
	})
	f.p = New(f.m, f.store, f.store, f.texts, f.failures)
	return f
}

func (f *fixture) addTrip(t *testing.T, start, end, cargo, fuel float64) {
	t.Helper()
	require.NoError(t, f.store.AppendTrip(context.Background(), &models.Trip{
		UserID:        userID,
		Date:          time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		StartOdometer: start,
		EndOdometer:   end,
		CargoWeightKg: cargo,
		TotalFuel:     fuel,
	}))
}

func (f *fixture) inFlow(t *testing.T) bool {
	t.Helper()
	active, err := f.m.InProgress(context.Background(), userID)
	require.NoError(t, err)
	return active
}

func TestStartNewUserBeginsOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.p.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.FirstRun}, r.Messages)
	assert.Equal(t, conversation.KeyboardCancel, r.Keyboard)
	assert.True(t, f.inFlow(t))
}

func TestStartKnownUserShowsMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveSettings(ctx, &models.UserSettings{UserID: userID, BaseRate: 9, ExtraRatePerTon: 1}))

	r, err := f.p.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.MainMenu}, r.Messages)
	assert.Equal(t, conversation.KeyboardMainMenu, r.Keyboard)
}

func TestStartDropsActiveFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveSettings(ctx, &models.UserSettings{UserID: userID, BaseRate: 9, ExtraRatePerTon: 1}))
	_, err := f.m.StartTrip(ctx, userID)
	require.NoError(t, err)

	r, err := f.p.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.MainMenu}, r.Messages)
	assert.False(t, f.inFlow(t))
}

func TestDispatchButtons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, ok, err := f.p.Dispatch(ctx, userID, f.texts.ButtonNewTrip)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{f.texts.StartOdometer}, r.Messages)
	assert.True(t, f.inFlow(t))

	r, ok, err = f.p.Dispatch(ctx, userID, f.texts.CancelToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{f.texts.Cancelled, f.texts.MainMenu}, r.Messages)
	assert.False(t, f.inFlow(t))

	r, ok, err = f.p.Dispatch(ctx, userID, f.texts.ButtonSettings)
	assert.ErrorIs(t, err, conversation.ErrPrerequisiteMissing)
	assert.True(t, ok)
	assert.Equal(t, []string{f.texts.MissingSettings, f.texts.MainMenu}, r.Messages)

	_, ok, err = f.p.Dispatch(ctx, userID, "привет")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListTrips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.p.ListTrips(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.NoTrips, f.texts.MainMenu}, r.Messages)

	f.addTrip(t, 100, 150, 2000, 10)
	f.addTrip(t, 150, 160.456, 0, 1.2345)

	r, _, err = f.p.Dispatch(ctx, userID, f.texts.ButtonViewTrips)
	require.NoError(t, err)
	require.Len(t, r.Messages, 2)
	assert.Equal(t, "Ваши поездки:\n"+
		"Дата: 2024-02-29\nРасстояние: 50.00 км\nГруз: 2.00 тонн\nРасход: 10.00 л\n\n"+
		"Дата: 2024-02-29\nРасстояние: 10.46 км\nГруз: 0.00 тонн\nРасход: 1.23 л\n\n", r.Messages[0])
	assert.Equal(t, conversation.KeyboardMainMenu, r.Keyboard)
}

func TestDeleteTrips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.p.DeleteTrips(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.NothingToDel, f.texts.MainMenu}, r.Messages)

	for i := 0; i < 3; i++ {
		f.addTrip(t, 0, 10, 0, 1)
	}
	r, err = f.p.DeleteTrips(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.texts.TripsDeleted, f.texts.MainMenu}, r.Messages)

	trips, err := f.store.ListTrips(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestStoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("db down")
	f.store.FailOn(memory.OpListTrips, boom)
	f.store.FailOn(memory.OpDeleteAllTrips, boom)
	f.store.FailOn(memory.OpGetSettings, boom)

	for _, call := range []func() (conversation.Reply, error){
		func() (conversation.Reply, error) { return f.p.ListTrips(ctx, userID) },
		func() (conversation.Reply, error) { return f.p.DeleteTrips(ctx, userID) },
		func() (conversation.Reply, error) { return f.p.Start(ctx, userID) },
	} {
		r, err := call()
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{f.texts.TryLater}, r.Messages)
	}
	assert.Equal(t, []string{"list_trips", "delete_trips", "get_settings"}, f.failures.ops)
}
