package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/fuelbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "cancel", Aliases: []string{"Отменить"}})
	reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "debug", Hidden: true})
	reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "invalid"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})

	cases := map[string]string{
		"/start":        "/start",
		"/start ignored": "/start",
		"Отменить":      "/cancel",
	}
	for text, want := range cases {
		key, _, ok := reg.LookupCommand(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, key, text)
	}

	for _, text := range []string{"150", "start", "cancel", "отменить", ""} {
		_, _, ok := reg.LookupCommand(text)
		assert.False(t, ok, text)
	}

	assert.Len(t, reg.Commands(), 3)
	visible := reg.ListCommands(true)
	assert.Equal(t, []tele.Command{{Text: "cancel", Description: "cancel"}, {Text: "start", Description: "start"}}, visible)
}
