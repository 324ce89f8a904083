package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySendsRoutedPayload(t *testing.T) {
	var received Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"message":"Welcome back!","thread":"th_1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	raw, err := client.Notify(context.Background(), RouteCallStart, "+15551234567", "empty", "CA123")
	require.NoError(t, err)

	assert.Equal(t, RouteCallStart, received.Route)
	assert.Equal(t, "+15551234567", received.Data1)
	assert.Equal(t, "empty", received.Data2)
	assert.Equal(t, "CA123", received.SID)

	reply := ParseReply(raw)
	assert.Equal(t, "Welcome back!", reply.Message)
	assert.Equal(t, "th_1", reply.Thread)
}

func TestNotifyNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Notify(context.Background(), RouteQuestion, "q", "", "CA123")

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusInternalServerError, failure.StatusCode)
}

func TestNotifyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, time.Second)
	_, err := client.Notify(context.Background(), RouteCallEnd, "caller", "transcript", "CA123")

	var failure *Failure
	require.ErrorAs(t, err, &failure)
}

func TestParseReplyStructured(t *testing.T) {
	reply := ParseReply(`{"message":"Hello!","thread":"th_9"}`)
	assert.Equal(t, "Hello!", reply.Message)
	assert.Equal(t, "th_9", reply.Thread)
}

func TestParseReplyFirstMessageFallback(t *testing.T) {
	reply := ParseReply(`{"firstMessage":"Hi from webhook"}`)
	assert.Equal(t, "Hi from webhook", reply.Message)
}

func TestParseReplyPlainText(t *testing.T) {
	reply := ParseReply("  Just a plain greeting  ")
	assert.Equal(t, "Just a plain greeting", reply.Message)
	assert.Equal(t, "", reply.Thread)
}

func TestParseReplyJSONWithoutMessage(t *testing.T) {
	// Valid JSON with no message fields stays empty so callers keep
	// their defaults.
	reply := ParseReply(`{"status":"ok"}`)
	assert.Equal(t, "", reply.Message)
}
