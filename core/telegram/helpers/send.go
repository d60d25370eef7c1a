package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the sender used by helper functions; nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// send runs the call through the dispatcher and waits for it, so successive
// calls from one handler keep their order and their errors reach the caller.
func send(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Do(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text with an optional reply markup.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return send(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMessages sends texts in order and attaches markup to the last one.
func SendMessages(c tele.Context, texts []string, markup *tele.ReplyMarkup) error {
	for i, text := range texts {
		var rm *tele.ReplyMarkup
		if i == len(texts)-1 {
			rm = markup
		}
		if err := SendText(c, text, rm); err != nil {
			return err
		}
	}
	return nil
}
