// Package commands describes slash commands exposed by the bot.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands work but are not published in the command menu.
	Hidden bool
	// Aliases are extra texts, such as reply keyboard labels, routed to Handler.
	Aliases []string
}
