package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/config"
	"github.com/ClareAI/astra-call-bridge/internal/core/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu     sync.Mutex
	route  webhook.Route
	data1  string
	data2  string
	callID string
	calls  int

	reply string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, route webhook.Route, data1, data2, callID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.route = route
	f.data1 = data1
	f.data2 = data2
	f.callID = callID
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newCallRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Host = "bridge.example.com"
	return req
}

func TestHandleIncomingCall(t *testing.T) {
	notifier := &fakeNotifier{reply: `{"firstMessage":"Hi there!"}`}
	store := session.NewStore()
	handler := NewCallHandler(&config.BridgeConfig{}, store, notifier)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("CallSid", "CA123")
	form.Set("To", "+15557654321")

	rec := httptest.NewRecorder()
	handler.HandleIncomingCall(rec, newCallRequest(form))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "wss://bridge.example.com/media-stream")
	assert.Contains(t, body, "Hi there!")
	assert.Contains(t, body, "+15551234567")

	assert.Equal(t, webhook.RouteCallStart, notifier.route)
	assert.Equal(t, "+15551234567", notifier.data1)
	assert.Equal(t, "empty", notifier.data2)
	assert.Equal(t, "CA123", notifier.callID)

	s, ok := store.Get("CA123")
	require.True(t, ok)
	assert.Equal(t, "Hi there!", s.Greeting())
	assert.Equal(t, "+15551234567", s.CallerNumber())
	assert.Equal(t, "+15557654321", s.Metadata["To"])
}

func TestHandleIncomingCallWebhookFailure(t *testing.T) {
	notifier := &fakeNotifier{err: &webhook.Failure{StatusCode: 500}}
	store := session.NewStore()
	handler := NewCallHandler(&config.BridgeConfig{}, store, notifier)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("CallSid", "CA123")

	rec := httptest.NewRecorder()
	handler.HandleIncomingCall(rec, newCallRequest(form))

	// The call proceeds with the default greeting.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), config.DefaultGreeting)

	s, ok := store.Get("CA123")
	require.True(t, ok)
	assert.Equal(t, config.DefaultGreeting, s.Greeting())
}

func TestHandleIncomingCallMissingIdentifiers(t *testing.T) {
	notifier := &fakeNotifier{}
	store := session.NewStore()
	handler := NewCallHandler(&config.BridgeConfig{}, store, notifier)

	rec := httptest.NewRecorder()
	handler.HandleIncomingCall(rec, newCallRequest(url.Values{}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Unknown", notifier.data1)
	assert.NotEmpty(t, notifier.callID, "a fallback call id is generated")
	assert.Equal(t, 1, store.Count())
}

func TestHandleIncomingCallForwardedHost(t *testing.T) {
	notifier := &fakeNotifier{}
	store := session.NewStore()
	handler := NewCallHandler(&config.BridgeConfig{}, store, notifier)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("CallSid", "CA123")

	req := newCallRequest(form)
	req.Header.Set("X-Forwarded-Host", "public.example.org")

	rec := httptest.NewRecorder()
	handler.HandleIncomingCall(rec, req)

	assert.Contains(t, rec.Body.String(), "wss://public.example.org/media-stream")
}
