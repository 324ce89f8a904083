// Package realtime implements the client side of the AI realtime
// transport: a persistent JSON-framed websocket authenticated with a
// bearer token.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config holds what Dial needs to open a realtime connection.
type Config struct {
	URL              string
	Model            string
	APIKey           string
	HandshakeTimeout time.Duration
}

// Conn is the duplex surface the client needs. *websocket.Conn
// satisfies it; tests substitute an in-memory pipe.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client wraps one realtime connection. Writes are serialized through a
// mutex: audio appends and tool results come from different goroutines
// and the underlying websocket allows a single concurrent writer.
type Client struct {
	conn    Conn
	writeMu sync.Mutex
}

// NewClient wraps an already-open connection.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// Dial opens the realtime websocket with bearer-token authentication.
// The handshake is bounded; a non-responding peer fails the call
// instead of hanging it.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	url := fmt.Sprintf("%s?model=%s", cfg.URL, cfg.Model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial realtime endpoint (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	logger.Base().Info("realtime connection established", zap.String("model", cfg.Model))
	return NewClient(conn), nil
}

// SendEvent marshals and writes one client event.
func (c *Client) SendEvent(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime event: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write realtime event: %w", err)
	}
	return nil
}

// ReadRaw blocks for the next server frame.
func (c *Client) ReadRaw() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close closes the underlying connection. Safe to call more than once;
// the second close surfaces an error from the transport which callers
// ignore.
func (c *Client) Close() error {
	return c.conn.Close()
}
