package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/config"
	"github.com/ClareAI/astra-call-bridge/internal/core/session"
	"github.com/ClareAI/astra-call-bridge/internal/core/tool"
	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"github.com/gorilla/mux"
)

// HandlerManager manages all handlers and their shared dependencies
type HandlerManager struct {
	config       *config.BridgeConfig
	store        *session.Store
	callHandler  *CallHandler
	mediaHandler *MediaHandler
}

// NewHandlerManager creates and wires all handlers
func NewHandlerManager(cfg *config.BridgeConfig) *HandlerManager {
	store := session.NewStore()
	notifier := webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout)
	dispatcher := tool.NewDispatcher(notifier)

	return &HandlerManager{
		config:       cfg,
		store:        store,
		callHandler:  NewCallHandler(cfg, store, notifier),
		mediaHandler: NewMediaHandler(cfg, store, notifier, dispatcher),
	}
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	if hm.config.EnableCORS {
		router.Use(CORSMiddleware)
	}
	router.Use(GlobalLoggingMiddleware)

	router.HandleFunc("/", hm.handleHealth).Methods("GET")
	router.HandleFunc("/incoming-call", hm.callHandler.HandleIncomingCall).Methods("GET", "POST")
	router.HandleFunc("/media-stream", hm.mediaHandler.HandleMediaStream)

	logger.Base().Info("all application routes registered")
}

func (hm *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "Twilio media stream bridge is running",
	})
}
