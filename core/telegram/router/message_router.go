package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/fuelbot/core/logger"
	tg "github.com/m3rciful/fuelbot/core/telegram"
	tghelpers "github.com/m3rciful/fuelbot/core/telegram/helpers"
	"github.com/m3rciful/fuelbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine consulted before commands and menu buttons.
// When InProgress fails the update still goes to ManagerHandler, which is
// expected to answer with its own failure notice.
type FSM interface {
	InProgress(ctx context.Context, userID int64) (bool, error)
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for non-text updates.
type TextOptions struct {
	// UnknownText runs when nothing else matched and the registry has no fallback.
	UnknownText tele.HandlerFunc
	// Unsupported answers stickers, photos and other media.
	Unsupported tele.HandlerFunc
}

// TextRoutes routes plain text: an active conversation first, then slash
// commands and aliases, then the registry fallback.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.BuildContext(c)

		if fsmMgr != nil {
			active, err := fsmMgr.InProgress(ctx, tghelpers.SenderID(c))
			if err != nil {
				logger.Warn(ctx, logger.CompState, "session.lookup",
					slog.String("status", "fail"),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
			}
			if active || err != nil {
				return handleWithSummary(c, "fsm", start, "", "", func() error {
					return fsmMgr.ManagerHandler(c)
				})
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Unsupported != nil {
			return handleWithSummary(c, "unsupported", start, "", "", func() error {
				return opts.Unsupported(c)
			})
		}
		logHandlerSummary(c, "unsupported", start, "skip", "ok", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(handler)}}
	for _, ep := range []string{tele.OnPhoto, tele.OnDocument, tele.OnSticker, tele.OnVoice, tele.OnLocation} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(mediaHandler)})
	}
	return routes
}
