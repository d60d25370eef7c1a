package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/fuelbot/core/logger"
	tghelpers "github.com/m3rciful/fuelbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const dedupWindow = 10 * time.Second

// updateSeen remembers recently logged update ids for dedupWindow.
type updateSeen struct {
	mu   sync.Mutex
	seen map[int]time.Time
}

var recent = &updateSeen{seen: make(map[int]time.Time)}

func (u *updateSeen) firstTime(updateID int, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, ts := range u.seen {
		if now.Sub(ts) > dedupWindow {
			delete(u.seen, id)
		}
	}
	if _, ok := u.seen[updateID]; ok {
		return false
	}
	u.seen[updateID] = now
	return true
}

// LoggerMiddleware assigns the rid, stores the per-update context and logs
// one sampled update.received line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		userID, chatID := tghelpers.SenderID(c), tghelpers.ChatID(c)

		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && recent.firstTime(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if user := c.Sender(); user != nil {
				if user.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
				}
				if user.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", user.LanguageCode))
				}
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
