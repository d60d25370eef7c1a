package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/fuelbot/core/logger"
	coretelegram "github.com/m3rciful/fuelbot/core/telegram"
	"github.com/m3rciful/fuelbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/fuelbot/core/telegram/helpers"
	"github.com/m3rciful/fuelbot/core/telegram/keyboard"
	"github.com/m3rciful/fuelbot/core/telegram/router"
	"github.com/m3rciful/fuelbot/internal/conversation"
	"github.com/m3rciful/fuelbot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

type handlers struct {
	machine   *conversation.Machine
	presenter *menu.Presenter
	texts     *conversation.Texts
}

func (h *handlers) register(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Главное меню",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.action(h.machine.Cancel),
		Description: "Отменить текущее действие",
	})
	reg.RegisterCommand("/trip", commands.Command{
		Handler:     h.action(h.machine.StartTrip),
		Description: "Новая запись о поездке",
	})
	reg.RegisterCommand("/trips", commands.Command{
		Handler:     h.action(h.presenter.ListTrips),
		Description: "Просмотреть записи",
	})
	reg.RegisterCommand("/delete", commands.Command{
		Handler:     h.action(h.presenter.DeleteTrips),
		Description: "Удалить все записи",
	})
	reg.RegisterCommand("/settings", commands.Command{
		Handler:     h.action(h.machine.StartSettingsUpdate),
		Description: "Изменить расход топлива",
	})
	reg.SetTextFallback(h.fallback)
}

func (h *handlers) routes(reg *coretelegram.Registry) []coretelegram.Route {
	routes := router.CommandRoutes(reg)
	return append(routes, router.TextRoutes(h, reg, router.TextOptions{})...)
}

// InProgress implements router.FSM.
func (h *handlers) InProgress(ctx context.Context, userID int64) (bool, error) {
	return h.machine.InProgress(ctx, userID)
}

// ManagerHandler implements router.FSM: the message continues the user's flow.
// It also runs when the session lookup failed, so the user gets the store
// failure notice instead of silence.
func (h *handlers) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "fsm")
	reply, err := h.machine.Handle(ctx, tghelpers.SenderID(c), c.Text())
	if errors.Is(err, conversation.ErrNoActiveFlow) {
		// The session expired between routing and handling.
		return h.fallback(c)
	}
	return h.render(c, reply, err)
}

func (h *handlers) start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := h.presenter.Start(ctx, tghelpers.SenderID(c))
	return h.render(c, reply, err)
}

func (h *handlers) action(fn func(ctx context.Context, userID int64) (conversation.Reply, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		reply, err := fn(ctx, tghelpers.SenderID(c))
		return h.render(c, reply, err)
	}
}

// fallback serves menu buttons and the cancel token; unknown text is ignored.
func (h *handlers) fallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, ok, err := h.presenter.Dispatch(ctx, tghelpers.SenderID(c), c.Text())
	if !ok {
		logger.Debug(ctx, logger.CompMenu, "menu.skip",
			slog.String("status", "skip"),
			slog.String("input", logger.SanitizeLimit(c.Text(), 32)),
		)
		return nil
	}
	return h.render(c, reply, err)
}

// render sends reply and reports only failures the user could not recover from.
func (h *handlers) render(c tele.Context, reply conversation.Reply, err error) error {
	if !reply.Empty() {
		if sendErr := tghelpers.SendMessages(c, reply.Messages, h.markupFor(reply.Keyboard)); sendErr != nil {
			return errors.Join(err, sendErr)
		}
	}
	var verr *conversation.ValidationError
	if errors.As(err, &verr) || errors.Is(err, conversation.ErrPrerequisiteMissing) {
		return nil
	}
	return err
}

func (h *handlers) markupFor(kind conversation.KeyboardKind) *tele.ReplyMarkup {
	switch kind {
	case conversation.KeyboardCancel:
		return keyboard.OneTimeButtons([]string{h.texts.CancelToken})
	case conversation.KeyboardMainMenu:
		return keyboard.OneTimeButtons(keyboard.Grid(h.texts.MenuLabels(), 2)...)
	case conversation.KeyboardRemove:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}
