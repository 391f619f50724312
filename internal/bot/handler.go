package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tiffinflow/relay/internal/catalog"
	"github.com/tiffinflow/relay/internal/metrics"
	"github.com/tiffinflow/relay/internal/upstream"
	"github.com/tiffinflow/relay/internal/whatsapp"
)

// Sender delivers outbound WhatsApp messages.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendList(ctx context.Context, to string, list whatsapp.ListMessage) error
}

// Handler turns one inbound message into at most one reply. Every
// failure is logged here and never returned.
type Handler struct {
	wa    Sender
	store catalog.Store
	log   zerolog.Logger
}

func NewHandler(wa Sender, s catalog.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		wa:    wa,
		store: s,
		log:   logger.With().Str("component", "bot").Logger(),
	}
}

func (h *Handler) Dispatch(ctx context.Context, msg whatsapp.InboundMessage) {
	logger := h.logger(ctx)
	ctx = logger.WithContext(ctx)

	var (
		kind string
		err  error
	)
	switch m := msg.(type) {
	case whatsapp.TextMessage:
		if !IsMenuCommand(m.Body) {
			kind = "ignored"
			logger.Debug().Msg("text is not a menu command")
			break
		}
		kind = "text_menu"
		logger.Info().Msg("fetching menus")
		defer metrics.TrackDispatch(kind)()
		err = h.sendMenu(ctx, m.From)

	case whatsapp.ListReply:
		kind = "list_reply"
		logger.Info().Str("kitchen_id", m.RowID).Msg("kitchen selected")
		defer metrics.TrackDispatch(kind)()
		err = h.sendKitchenDetails(ctx, m.From, m.RowID)

	case whatsapp.Unsupported:
		kind = "ignored"
		logger.Debug().Str("type", m.Type).Msg("unsupported message type")

	default:
		kind = "ignored"
	}

	metrics.IncDelivery(kind)
	if err != nil {
		logFailure(logger, err, "handling message")
	}
}

func (h *Handler) sendMenu(ctx context.Context, to string) error {
	entries, err := h.store.List(ctx)
	metrics.ObserveStore("list", err)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		h.sendText(ctx, to, noKitchensText)
		return nil
	}

	err = h.wa.SendList(ctx, to, BuildMenuList(entries))
	metrics.ObserveSend("interactive", err)
	if err != nil {
		return fmt.Errorf("sending menu list: %w", err)
	}
	return nil
}

func (h *Handler) sendKitchenDetails(ctx context.Context, to, kitchenID string) error {
	entry, err := h.store.Get(ctx, kitchenID)
	metrics.ObserveStore("get", err)
	if err != nil {
		return err
	}

	if entry == nil {
		h.sendText(ctx, to, unavailableText)
		return nil
	}
	h.sendText(ctx, to, FormatKitchenDetails(*entry))
	return nil
}

// sendText logs its own failure so a broken send never aborts the caller.
func (h *Handler) sendText(ctx context.Context, to, body string) {
	err := h.wa.SendText(ctx, to, body)
	metrics.ObserveSend("text", err)
	if err != nil {
		logFailure(h.logger(ctx), err, "failed to send text message")
	}
}

func (h *Handler) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.log
}

func logFailure(logger *zerolog.Logger, err error, msg string) {
	ev := logger.Error().Err(err).Str("error_kind", string(upstream.Classify(err)))

	var apiErr *upstream.Error
	if errors.As(err, &apiErr) {
		ev = ev.Str("service", apiErr.Service).
			Int("status", apiErr.StatusCode).
			Str("response_body", apiErr.Body)
	}
	ev.Msg(msg)
}
