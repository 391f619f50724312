package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tiffinflow/relay/internal/metrics"
)

const maxPayloadBytes = 1 << 20

// Dispatcher handles one parsed inbound message. It owns its errors.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg InboundMessage)
}

// TaskRunner runs fn in the background; the webhook never waits for it.
type TaskRunner interface {
	Go(ctx context.Context, fn func(ctx context.Context))
}

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	dispatcher  Dispatcher
	runner      TaskRunner
	log         zerolog.Logger
}

func NewWebhookHandler(verifyToken, appSecret string, d Dispatcher, runner TaskRunner, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		dispatcher:  d,
		runner:      runner,
		log:         logger.With().Str("component", "webhook").Logger(),
	}
}

// HandleVerify handles the GET webhook verification from Meta.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/get-started#webhook-verification
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if token != "" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	h.log.Warn().Str("remote", r.RemoteAddr).Msg("verification rejected: token mismatch")
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleIncoming acknowledges a delivery with 200 before doing any work,
// so Meta never retries because of slow or failed processing.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	body, readErr := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	signature := r.Header.Get(SignatureHeader)
	w.WriteHeader(http.StatusOK)

	deliveryID := uuid.NewString()
	logger := h.log.With().Str("delivery_id", deliveryID).Logger()

	if readErr != nil {
		logger.Error().Err(readErr).Msg("reading payload")
		metrics.IncDelivery("malformed")
		return
	}
	if h.appSecret != "" {
		if err := VerifySignature(h.appSecret, signature, body); err != nil {
			logger.Warn().Err(err).Msg("dropping delivery with bad signature")
			metrics.IncDelivery("invalid_signature")
			return
		}
	}

	ctx := logger.WithContext(context.WithoutCancel(r.Context()))
	h.runner.Go(ctx, func(ctx context.Context) {
		h.process(ctx, body)
	})
}

func (h *WebhookHandler) process(ctx context.Context, body []byte) {
	logger := zerolog.Ctx(ctx)

	var payload WebhookPayload
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("failed to decode payload")
		metrics.IncDelivery("malformed")
		return
	}

	msg, ok := FirstMessage(payload)
	if !ok {
		logger.Debug().Str("object", payload.Object).Msg("delivery carries no message")
		metrics.IncDelivery("empty")
		return
	}

	ctx = logger.With().Str("from", msg.Sender()).Logger().WithContext(ctx)
	h.dispatcher.Dispatch(ctx, msg)
}
