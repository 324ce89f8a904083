package handler

import (
	"context"
	"net/http"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/config"
	"github.com/ClareAI/astra-call-bridge/internal/core/bridge"
	"github.com/ClareAI/astra-call-bridge/internal/core/realtime"
	"github.com/ClareAI/astra-call-bridge/internal/core/session"
	"github.com/ClareAI/astra-call-bridge/internal/core/tool"
	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MediaHandler accepts media-stream websocket connections and spins up
// a bridge per call.
type MediaHandler struct {
	cfg        *config.BridgeConfig
	store      *session.Store
	notifier   Notifier
	dispatcher *tool.Dispatcher

	upgrader websocket.Upgrader
}

// NewMediaHandler creates the media-stream handler.
func NewMediaHandler(cfg *config.BridgeConfig, store *session.Store, notifier Notifier, dispatcher *tool.Dispatcher) *MediaHandler {
	return &MediaHandler{
		cfg:        cfg,
		store:      store,
		notifier:   notifier,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Media streams originate from the telephony provider, not a browser.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleMediaStream upgrades the connection, attaches the call session,
// dials the realtime endpoint, and runs the bridge until the call ends.
func (h *MediaHandler) HandleMediaStream(w http.ResponseWriter, r *http.Request) {
	callID := r.Header.Get("X-Twilio-Call-Sid")
	if callID == "" {
		callID = uuid.NewString()
		logger.Base().Warn("media stream without call sid header, generated fallback",
			zap.String("call_id", callID))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Base().Error("failed to upgrade media stream connection",
			zap.String("call_id", callID), zap.Error(err))
		return
	}

	call := h.store.GetOrCreate(callID)

	logger.Base().Info("media stream connected",
		zap.String("call_id", callID),
		zap.Int("active_sessions", h.store.Count()))

	ai, err := realtime.Dial(r.Context(), realtime.Config{
		URL:              h.cfg.OpenAIRealtimeURL,
		Model:            h.cfg.RealtimeModel,
		APIKey:           h.cfg.OpenAIAPIKey,
		HandshakeTimeout: h.cfg.HandshakeTimeout,
	})
	if err != nil {
		logger.Base().Error("failed to dial realtime endpoint",
			zap.String("call_id", callID), zap.Error(err))
		conn.Close()
		h.finalizeCall(call)
		return
	}

	b := bridge.New(h.cfg, conn, ai, call, h.store, h.notifier, h.dispatcher)
	b.Run(r.Context())
}

// finalizeCall posts the end-of-call notification and evicts the
// session for calls that never reached a running bridge. The call
// ended, so the business side must hear about it either way.
func (h *MediaHandler) finalizeCall(call *session.CallSession) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WebhookTimeout)
	defer cancel()
	if _, err := h.notifier.Notify(ctx, webhook.RouteCallEnd, call.CallerNumber(), call.Transcript(), call.CallID); err != nil {
		logger.Base().Error("failed to post end-of-call notification",
			zap.String("call_id", call.CallID), zap.Error(err))
	}
	h.store.Delete(call.CallID)
}
