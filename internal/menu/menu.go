// Package menu answers idle users: /start, the main menu buttons and the
// trip list and delete actions that finish in a single message.
package menu

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/fuelbot/core/logger"
	"github.com/m3rciful/fuelbot/internal/conversation"
	"github.com/m3rciful/fuelbot/internal/storage"
)

// Flows starts multi-step conversations.
type Flows interface {
	StartOnboarding(ctx context.Context, userID int64) (conversation.Reply, error)
	StartTrip(ctx context.Context, userID int64) (conversation.Reply, error)
	StartSettingsUpdate(ctx context.Context, userID int64) (conversation.Reply, error)
	Cancel(ctx context.Context, userID int64) (conversation.Reply, error)
	Reset(ctx context.Context, userID int64) error
}

// FailureObserver counts store failures.
type FailureObserver interface {
	StoreFailure(op string)
}

// Presenter dispatches menu commands.
type Presenter struct {
	flows    Flows
	settings storage.SettingsStore
	trips    storage.TripStore
	texts    *conversation.Texts
	obs      FailureObserver
}

// New builds a Presenter. obs may be nil.
func New(flows Flows, settings storage.SettingsStore, trips storage.TripStore, texts *conversation.Texts, obs FailureObserver) *Presenter {
	if texts == nil {
		texts = conversation.DefaultTexts()
	}
	return &Presenter{flows: flows, settings: settings, trips: trips, texts: texts, obs: obs}
}

// Start shows the menu to known users and onboards new ones.
// An active flow is dropped first.
func (p *Presenter) Start(ctx context.Context, userID int64) (conversation.Reply, error) {
	if err := p.flows.Reset(ctx, userID); err != nil {
		var sf *conversation.StoreFailure
		if errors.As(err, &sf) {
			return p.failure(ctx, sf.Op, sf.Err)
		}
		return p.failure(ctx, "reset", err)
	}
	_, err := p.settings.GetSettings(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info(ctx, logger.CompMenu, "menu.start", slog.String("flow", conversation.FlowOnboarding))
		return p.flows.StartOnboarding(ctx, userID)
	case err != nil:
		return p.failure(ctx, "get_settings", err)
	}
	logger.Info(ctx, logger.CompMenu, "menu.start")
	return p.texts.MainMenuReply(), nil
}

// Dispatch handles a menu button or the cancel token typed while idle.
// ok is false when text is not a menu command.
func (p *Presenter) Dispatch(ctx context.Context, userID int64, text string) (conversation.Reply, bool, error) {
	var (
		reply conversation.Reply
		err   error
	)
	switch strings.TrimSpace(text) {
	case p.texts.ButtonNewTrip:
		reply, err = p.flows.StartTrip(ctx, userID)
	case p.texts.ButtonViewTrips:
		reply, err = p.ListTrips(ctx, userID)
	case p.texts.ButtonDelete:
		reply, err = p.DeleteTrips(ctx, userID)
	case p.texts.ButtonSettings:
		reply, err = p.flows.StartSettingsUpdate(ctx, userID)
	case p.texts.CancelToken:
		reply, err = p.flows.Cancel(ctx, userID)
	default:
		return conversation.Reply{}, false, nil
	}
	return reply, true, err
}

// ListTrips renders the user's trips in creation order.
func (p *Presenter) ListTrips(ctx context.Context, userID int64) (conversation.Reply, error) {
	trips, err := p.trips.ListTrips(ctx, userID)
	if err != nil {
		return p.failure(ctx, "list_trips", err)
	}
	logger.Info(ctx, logger.CompMenu, "menu.list", slog.Int("trips", len(trips)))
	if len(trips) == 0 {
		return p.menu(p.texts.NoTrips), nil
	}
	return p.menu(p.texts.TripList(trips)), nil
}

// DeleteTrips removes every trip of the user.
func (p *Presenter) DeleteTrips(ctx context.Context, userID int64) (conversation.Reply, error) {
	n, err := p.trips.DeleteAllTrips(ctx, userID)
	if err != nil {
		return p.failure(ctx, "delete_trips", err)
	}
	logger.Info(ctx, logger.CompMenu, "menu.delete", slog.Int64("deleted", n))
	if n == 0 {
		return p.menu(p.texts.NothingToDel), nil
	}
	return p.menu(p.texts.TripsDeleted), nil
}

func (p *Presenter) menu(notice string) conversation.Reply {
	r := p.texts.MainMenuReply()
	r.Messages = append([]string{notice}, r.Messages...)
	return r
}

func (p *Presenter) failure(ctx context.Context, op string, err error) (conversation.Reply, error) {
	if p.obs != nil {
		p.obs.StoreFailure(op)
	}
	logger.Error(ctx, logger.CompMenu, "store.failure",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	return conversation.Reply{
		Messages: []string{p.texts.TryLater},
		Keyboard: conversation.KeyboardMainMenu,
	}, &conversation.StoreFailure{Op: op, Err: err}
}
