package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/config"
	"github.com/ClareAI/astra-call-bridge/internal/core/session"
	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"github.com/google/uuid"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// CallHandler answers inbound call setup requests: it notifies the
// business webhook, registers the session, and returns connection
// instructions that route the call's media stream back to this service.
type CallHandler struct {
	cfg      *config.BridgeConfig
	store    *session.Store
	notifier Notifier
}

// Notifier posts lifecycle notifications to the business webhook.
type Notifier interface {
	Notify(ctx context.Context, route webhook.Route, data1, data2, callID string) (string, error)
}

// NewCallHandler creates the inbound call handler.
func NewCallHandler(cfg *config.BridgeConfig, store *session.Store, notifier Notifier) *CallHandler {
	return &CallHandler{cfg: cfg, store: store, notifier: notifier}
}

// HandleIncomingCall processes one call setup request. The webhook is
// consulted for a greeting override; when it fails, the call proceeds
// with the default greeting.
func (h *CallHandler) HandleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.Base().Warn("failed to parse call setup form", zap.Error(err))
	}

	callerNumber := r.Form.Get("From")
	if callerNumber == "" {
		callerNumber = "Unknown"
	}
	callID := r.Form.Get("CallSid")
	if callID == "" {
		callID = uuid.NewString()
		logger.Base().Warn("call setup without call sid, generated fallback",
			zap.String("call_id", callID))
	}

	// Retain all setup parameters opaquely for the session's lifetime.
	metadata := make(map[string]string, len(r.Form))
	for key := range r.Form {
		metadata[key] = r.Form.Get(key)
	}

	logger.Base().Info("incoming call",
		zap.String("call_id", callID),
		zap.String("caller", callerNumber))

	greeting := h.resolveGreeting(r, callerNumber, callID)

	h.store.Create(session.NewCallSession(callID, callerNumber, greeting, metadata))

	response, err := buildConnectionInstructions(streamHost(r), greeting, callerNumber)
	if err != nil {
		logger.Base().Error("failed to build connection instructions",
			zap.String("call_id", callID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprint(w, response)
}

// resolveGreeting notifies call start and applies any greeting override
// the webhook returned.
func (h *CallHandler) resolveGreeting(r *http.Request, callerNumber, callID string) string {
	greeting := config.DefaultGreeting

	raw, err := h.notifier.Notify(r.Context(), webhook.RouteCallStart, callerNumber, "empty", callID)
	if err != nil {
		logger.Base().Error("call start notification failed, using default greeting",
			zap.String("call_id", callID), zap.Error(err))
		return greeting
	}

	if reply := webhook.ParseReply(raw); reply.Message != "" {
		greeting = reply.Message
		logger.Base().Info("greeting overridden by webhook",
			zap.String("call_id", callID))
	}
	return greeting
}

// buildConnectionInstructions renders the TwiML that connects the call
// to this service's media-stream endpoint, carrying the greeting and
// caller number as stream parameters.
func buildConnectionInstructions(host, greeting, callerNumber string) (string, error) {
	stream := twiml.VoiceStream{
		Url: fmt.Sprintf("wss://%s/media-stream", host),
		InnerElements: []twiml.Element{
			twiml.VoiceParameter{Name: "firstMessage", Value: greeting},
			twiml.VoiceParameter{Name: "callerNumber", Value: callerNumber},
		},
	}
	connect := twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}
	return twiml.Voice([]twiml.Element{connect})
}

func streamHost(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		return forwarded
	}
	return r.Host
}
