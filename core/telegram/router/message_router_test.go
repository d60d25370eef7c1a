package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/fuelbot/core/telegram"
	"github.com/m3rciful/fuelbot/core/telegram/commands"
)

type fakeFSM struct {
	active  bool
	err     error
	handled []string
}

func (f *fakeFSM) InProgress(context.Context, int64) (bool, error) {
	return f.active, f.err
}

func (f *fakeFSM) ManagerHandler(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

type textRig struct {
	fsm      *fakeFSM
	commands []string
	fallback []string
	handler  tele.HandlerFunc
	bot      *tele.Bot
}

func newTextRig(t *testing.T, fsm *fakeFSM) *textRig {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)

	rig := &textRig{fsm: fsm, bot: b}
	reg := tg.NewRegistry()
	reg.RegisterCommand("/delete", commands.Command{
		Description: "delete",
		Handler: func(c tele.Context) error {
			rig.commands = append(rig.commands, c.Text())
			return nil
		},
	})
	reg.SetTextFallback(func(c tele.Context) error {
		rig.fallback = append(rig.fallback, c.Text())
		return nil
	})

	routes := TextRoutes(fsm, reg, TextOptions{})
	require.NotEmpty(t, routes)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
	rig.handler = routes[0].Handler
	return rig
}

func (r *textRig) send(t *testing.T, text string) {
	t.Helper()
	c := r.bot.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: 42},
			Chat:   &tele.Chat{ID: 42},
		},
	})
	require.NoError(t, r.handler(c))
}

func TestTextRoutesActiveFlowWins(t *testing.T) {
	rig := newTextRig(t, &fakeFSM{active: true})
	rig.send(t, "/delete")
	rig.send(t, "150")

	assert.Equal(t, []string{"/delete", "150"}, rig.fsm.handled)
	assert.Empty(t, rig.commands)
	assert.Empty(t, rig.fallback)
}

func TestTextRoutesLookupFailureGoesToFlow(t *testing.T) {
	rig := newTextRig(t, &fakeFSM{err: errors.New("redis down")})
	rig.send(t, "150")

	assert.Equal(t, []string{"150"}, rig.fsm.handled)
	assert.Empty(t, rig.fallback)
}

func TestTextRoutesIdle(t *testing.T) {
	rig := newTextRig(t, &fakeFSM{})
	rig.send(t, "/delete")
	rig.send(t, "delete")
	rig.send(t, "150")

	assert.Empty(t, rig.fsm.handled)
	assert.Equal(t, []string{"/delete"}, rig.commands)
	assert.Equal(t, []string{"delete", "150"}, rig.fallback)
}
