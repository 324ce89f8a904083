// Package bridge runs the per-call relay between a telephony media
// stream and an AI realtime session. Each call gets one Bridge with its
// own pair of pump goroutines; bridges share nothing but the session
// store.
package bridge

import (
	"context"
	"sync"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/config"
	"github.com/ClareAI/astra-call-bridge/internal/core/realtime"
	"github.com/ClareAI/astra-call-bridge/internal/core/session"
	"github.com/ClareAI/astra-call-bridge/internal/core/telephony"
	"github.com/ClareAI/astra-call-bridge/internal/core/tool"
	"github.com/ClareAI/astra-call-bridge/internal/prompts"
	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"go.uber.org/zap"
)

// State tracks where a bridge is in its lifecycle.
type State int

const (
	StateInit State = iota
	StateAIConnecting
	StateAIReady
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAIConnecting:
		return "ai_connecting"
	case StateAIReady:
		return "ai_ready"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Wire is the telephony-side duplex surface. *websocket.Conn satisfies
// it; tests substitute an in-memory fake.
type Wire interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Notifier posts lifecycle notifications to the business webhook.
type Notifier interface {
	Notify(ctx context.Context, route webhook.Route, data1, data2, callID string) (string, error)
}

// Bridge relays media and events for one call. The telephony pump reads
// caller frames and the AI pump reads model events; they run
// concurrently and converge in an idempotent teardown.
type Bridge struct {
	cfg        *config.BridgeConfig
	wire       Wire
	ai         *realtime.Client
	call       *session.CallSession
	store      *session.Store
	notifier   Notifier
	dispatcher *tool.Dispatcher

	mu            sync.Mutex
	state         State
	threadID      string
	streamStarted bool
	aiReady       bool
	greetingSent  bool

	wireWriteMu sync.Mutex
	closeOnce   sync.Once
}

// New assembles a bridge around an already-open pair of connections.
func New(cfg *config.BridgeConfig, wire Wire, ai *realtime.Client, call *session.CallSession, store *session.Store, notifier Notifier, dispatcher *tool.Dispatcher) *Bridge {
	return &Bridge{
		cfg:        cfg,
		wire:       wire,
		ai:         ai,
		call:       call,
		store:      store,
		notifier:   notifier,
		dispatcher: dispatcher,
		state:      StateInit,
	}
}

// Run drives the bridge to completion. It configures the AI session,
// starts the AI pump, and consumes the telephony stream until it ends.
// Teardown always runs before Run returns.
func (b *Bridge) Run(ctx context.Context) {
	b.setState(StateAIConnecting)

	if err := b.configureAISession(); err != nil {
		logger.Base().Error("failed to configure realtime session",
			zap.String("call_id", b.call.CallID), zap.Error(err))
		b.teardown()
		return
	}

	b.mu.Lock()
	b.aiReady = true
	b.state = StateAIReady
	b.mu.Unlock()
	b.maybeFlushGreeting()

	go b.aiPump(ctx)

	b.telephonyPump(ctx)
	b.teardown()
}

// configureAISession pushes audio formats, voice, instructions, and
// tool declarations. Nothing else is sent to the AI before this.
func (b *Bridge) configureAISession() error {
	update := realtime.SessionUpdate{
		Type: "session.update",
		Session: realtime.SessionConfig{
			TurnDetection:           &realtime.TurnDetection{Type: "server_vad"},
			InputAudioFormat:        config.DefaultAudioFormat,
			OutputAudioFormat:       config.DefaultAudioFormat,
			Voice:                   b.cfg.Voice,
			Instructions:            prompts.SystemMessage,
			Modalities:              []string{"text", "audio"},
			Temperature:             0.8,
			InputAudioTranscription: &realtime.TranscriptionConfig{Model: "whisper-1"},
			Tools:                   tool.Declarations(),
			ToolChoice:              "auto",
		},
	}
	return b.ai.SendEvent(update)
}

// telephonyPump consumes media-stream frames until the stream stops or
// the transport closes. Malformed frames are dropped, never fatal.
func (b *Bridge) telephonyPump(ctx context.Context) {
	for {
		_, data, err := b.wire.ReadMessage()
		if err != nil {
			if !b.closing() {
				logger.Base().Info("media stream closed",
					zap.String("call_id", b.call.CallID), zap.Error(err))
			}
			return
		}

		event, err := telephony.ParseEvent(data)
		if err != nil {
			logger.Base().Warn("dropping malformed media-stream frame",
				zap.String("call_id", b.call.CallID), zap.Error(err))
			continue
		}

		switch e := event.(type) {
		case telephony.StartEvent:
			b.handleStreamStart(e)
		case telephony.MediaEvent:
			b.handleCallerAudio(e)
		case telephony.StopEvent:
			logger.Base().Info("media stream stopped", zap.String("call_id", b.call.CallID))
			return
		case telephony.UnknownEvent:
			logger.Base().Debug("ignoring media-stream event",
				zap.String("call_id", b.call.CallID), zap.String("event", e.Kind))
		}
	}
}

func (b *Bridge) handleStreamStart(e telephony.StartEvent) {
	b.call.SetStreamContext(e.StreamSID, e.CustomParameters["callerNumber"], e.CustomParameters["firstMessage"])

	logger.Base().Info("media stream started",
		zap.String("call_id", b.call.CallID),
		zap.String("stream_sid", e.StreamSID),
		zap.String("caller", b.call.CallerNumber()))

	b.mu.Lock()
	b.streamStarted = true
	b.mu.Unlock()
	b.maybeFlushGreeting()
}

func (b *Bridge) handleCallerAudio(e telephony.MediaEvent) {
	b.mu.Lock()
	ready := b.aiReady
	b.mu.Unlock()
	if !ready {
		logger.Base().Warn("dropping caller audio, realtime session not ready",
			zap.String("call_id", b.call.CallID))
		return
	}

	if err := b.ai.SendEvent(realtime.NewAudioAppend(e.Payload)); err != nil {
		if !b.closing() {
			logger.Base().Warn("failed to forward caller audio",
				zap.String("call_id", b.call.CallID), zap.Error(err))
		}
	}
}

// maybeFlushGreeting sends the buffered greeting exactly once, after
// both the media stream has started and the AI session is configured.
func (b *Bridge) maybeFlushGreeting() {
	b.mu.Lock()
	if !b.streamStarted || !b.aiReady || b.greetingSent {
		b.mu.Unlock()
		return
	}
	b.greetingSent = true
	b.state = StateActive
	b.mu.Unlock()

	greeting := b.call.Greeting()
	if greeting == "" {
		greeting = config.DefaultGreeting
	}

	logger.Base().Info("sending greeting",
		zap.String("call_id", b.call.CallID), zap.String("greeting", greeting))

	if err := b.ai.SendEvent(realtime.NewUserMessageItem(greeting)); err != nil {
		logger.Base().Error("failed to send greeting item",
			zap.String("call_id", b.call.CallID), zap.Error(err))
		return
	}
	if err := b.ai.SendEvent(realtime.NewResponseCreate()); err != nil {
		logger.Base().Error("failed to request greeting response",
			zap.String("call_id", b.call.CallID), zap.Error(err))
	}
}

// aiPump consumes realtime events until the connection closes.
// Malformed events are dropped; a transport error tears the call down.
func (b *Bridge) aiPump(ctx context.Context) {
	for {
		data, err := b.ai.ReadRaw()
		if err != nil {
			if !b.closing() {
				logger.Base().Info("realtime connection closed",
					zap.String("call_id", b.call.CallID), zap.Error(err))
				b.teardown()
			}
			return
		}

		event, err := realtime.ParseEvent(data)
		if err != nil {
			logger.Base().Warn("dropping malformed realtime event",
				zap.String("call_id", b.call.CallID), zap.Error(err))
			continue
		}

		switch e := event.(type) {
		case realtime.ResponseAudioDelta:
			b.relayAgentAudio(e)
		case realtime.FunctionCallArgumentsDone:
			b.handleFunctionCall(ctx, e)
		case realtime.ResponseDone:
			transcript := e.Transcript
			if transcript == "" {
				transcript = "Agent message not found"
			}
			b.call.AppendAgentLine(transcript)
		case realtime.InputAudioTranscriptionCompleted:
			if e.Transcript != "" {
				b.call.AppendUserLine(e.Transcript)
			}
		case realtime.Diagnostic:
			logger.Base().Debug("realtime diagnostic",
				zap.String("call_id", b.call.CallID), zap.String("event", e.Kind))
		case realtime.Unknown:
			logger.Base().Debug("ignoring realtime event",
				zap.String("call_id", b.call.CallID), zap.String("event", e.Kind))
		}
	}
}

// relayAgentAudio forwards one synthesized chunk to the caller. Deltas
// are relayed in arrival order; the single AI pump goroutine guarantees
// that.
func (b *Bridge) relayAgentAudio(e realtime.ResponseAudioDelta) {
	if e.Delta == "" {
		return
	}
	frame := telephony.NewMediaFrame(b.call.StreamSID(), e.Delta)

	b.wireWriteMu.Lock()
	err := b.wire.WriteJSON(frame)
	b.wireWriteMu.Unlock()
	if err != nil && !b.closing() {
		logger.Base().Warn("failed to relay agent audio",
			zap.String("call_id", b.call.CallID), zap.Error(err))
	}
}

// handleFunctionCall runs a tool round-trip inline on the AI pump, then
// feeds the result back and requests a spoken continuation. A failed
// round-trip produces a spoken apology instead of stalling the call.
func (b *Bridge) handleFunctionCall(ctx context.Context, e realtime.FunctionCallArgumentsDone) {
	b.mu.Lock()
	threadID := b.threadID
	b.mu.Unlock()

	result, err := b.dispatcher.Dispatch(ctx, tool.Request{
		Name:         e.Name,
		Arguments:    e.Arguments,
		CallID:       b.call.CallID,
		CallerNumber: b.call.CallerNumber(),
		ThreadID:     threadID,
	})
	if err != nil {
		logger.Base().Error("tool dispatch failed",
			zap.String("call_id", b.call.CallID),
			zap.String("tool", e.Name),
			zap.Error(err))
		if sendErr := b.ai.SendEvent(realtime.NewSpokenResponse(prompts.ApologyInstructions)); sendErr != nil {
			logger.Base().Warn("failed to send apology response",
				zap.String("call_id", b.call.CallID), zap.Error(sendErr))
		}
		return
	}

	if result.ThreadID != "" {
		b.mu.Lock()
		b.threadID = result.ThreadID
		b.mu.Unlock()
	}

	if err := b.ai.SendEvent(realtime.NewFunctionOutputItem(result.Message)); err != nil {
		logger.Base().Warn("failed to send function output",
			zap.String("call_id", b.call.CallID), zap.Error(err))
		return
	}
	if err := b.ai.SendEvent(realtime.NewSpokenResponse(result.SpeakInstructions)); err != nil {
		logger.Base().Warn("failed to request tool continuation",
			zap.String("call_id", b.call.CallID), zap.Error(err))
	}
}

// teardown closes both connections, posts the end-of-call notification
// with the full transcript, and evicts the session. Safe to invoke from
// either pump; it runs once.
func (b *Bridge) teardown() {
	b.closeOnce.Do(func() {
		b.setState(StateClosing)

		if err := b.ai.Close(); err != nil {
			logger.Base().Debug("realtime close",
				zap.String("call_id", b.call.CallID), zap.Error(err))
		}
		if err := b.wire.Close(); err != nil {
			logger.Base().Debug("media stream close",
				zap.String("call_id", b.call.CallID), zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.WebhookTimeout)
		defer cancel()
		if _, err := b.notifier.Notify(ctx, webhook.RouteCallEnd, b.call.CallerNumber(), b.call.Transcript(), b.call.CallID); err != nil {
			logger.Base().Error("failed to post end-of-call notification",
				zap.String("call_id", b.call.CallID), zap.Error(err))
		}

		b.store.Delete(b.call.CallID)
		b.setState(StateClosed)

		logger.Base().Info("call torn down", zap.String("call_id", b.call.CallID))
	})
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	prev := b.state
	b.state = s
	b.mu.Unlock()

	logger.Base().Debug("bridge state change",
		zap.String("call_id", b.call.CallID),
		zap.Stringer("from", prev),
		zap.Stringer("to", s))
}

func (b *Bridge) closing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateClosing || b.state == StateClosed
}

// CurrentState reports the bridge lifecycle state.
func (b *Bridge) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
