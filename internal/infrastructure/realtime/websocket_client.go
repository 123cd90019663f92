package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/stream"
)

const (
	// writeWait bounds control frame writes
	writeWait = 10 * time.Second
	// pongWait is how long the server has to answer a ping
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps a single inbound frame
	maxMessageSize = 256 * 1024
)

// RedialPolicy defines reconnect backoff behavior
type RedialPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRedialPolicy returns the standard reconnect backoff
func DefaultRedialPolicy() RedialPolicy {
	return RedialPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// TransportStats tracks stream transport statistics
type TransportStats struct {
	ItemsReceived int64     `json:"items_received"`
	FramesDropped int64     `json:"frames_dropped"`
	BytesRead     int64     `json:"bytes_read"`
	Reconnects    int64     `json:"reconnects"`
	LastItemTime  time.Time `json:"last_item_time"`
}

// WebSocketClient implements the RealtimeTransport interface over a
// gorilla websocket connection. Decoded items flow out through a
// buffered channel that survives reconnects; lifecycle transitions
// surface through the registered callbacks.
type WebSocketClient struct {
	url       string
	apiKey    string
	dialer    *websocket.Dialer
	redial    RedialPolicy
	conn      *websocket.Conn
	itemChan  chan *stream.Item
	errorChan chan error
	callbacks ports.TransportCallbacks
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	closing   bool
	logger    ports.LoggingGateway
	stats     *TransportStats
	mu        sync.RWMutex
}

// NewWebSocketClient creates a new websocket stream client
func NewWebSocketClient(url, apiKey string, logger ports.LoggingGateway) *WebSocketClient {
	return &WebSocketClient{
		url:    url,
		apiKey: apiKey,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		redial:    DefaultRedialPolicy(),
		itemChan:  make(chan *stream.Item, 256),
		errorChan: make(chan error, 64),
		logger:    logger,
		stats:     &TransportStats{},
	}
}

// NewTestWebSocketClient creates a client with test-friendly timings
func NewTestWebSocketClient(url, apiKey string, logger ports.LoggingGateway) *WebSocketClient {
	client := NewWebSocketClient(url, apiKey, logger)
	client.dialer.HandshakeTimeout = 2 * time.Second
	client.redial = RedialPolicy{
		MaxAttempts: 2,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
	}
	return client
}

// Connect dials the stream and starts the read pump. The context only
// governs the dial; the connection itself lives until Disconnect or a
// remote failure.
func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("transport is already connected")
	}
	c.mu.Unlock()

	if !strings.HasPrefix(c.url, "ws://") && !strings.HasPrefix(c.url, "wss://") {
		return ports.NewTransportError("dial", c.url, fmt.Errorf("stream URL must use ws:// or wss://"))
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Log(ports.LogLevelInfo, "Dialing stream", map[string]interface{}{
		"url": c.url,
	})

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return ports.NewTransportError("dial", c.url,
				fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err))
		}
		return ports.NewTransportError("dial", c.url, err)
	}

	conn.SetReadLimit(maxMessageSize)

	// The pump outlives the dial context on purpose.
	pumpCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.isRunning = true
	c.closing = false
	c.mu.Unlock()

	go c.readPump(pumpCtx, conn, done)
	go c.pingLoop(pumpCtx, conn)

	c.fireConnect()
	return nil
}

// Disconnect closes the connection deliberately, without firing the
// disconnect callback.
func (c *WebSocketClient) Disconnect() error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	// Polite close frame; the server may already be gone.
	deadline := time.Now().Add(writeWait)
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, message, deadline)

	c.teardown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}

	c.logger.Log(ports.LogLevelInfo, "Stream closed", nil)
	return nil
}

// Reconnect redials with capped exponential backoff. The item channel
// is stable across reconnects, so consumers keep their subscription.
func (c *WebSocketClient) Reconnect() error {
	c.mu.RLock()
	running := c.isRunning
	c.mu.RUnlock()
	if running {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < c.redial.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.redialDelay(attempt)
			c.logger.Log(ports.LogLevelInfo, "Retrying stream dial", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
			time.Sleep(delay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout)
		err := c.Connect(ctx)
		cancel()

		if err == nil {
			c.recordReconnect()
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("reconnect failed after %d attempts: %w", c.redial.MaxAttempts, lastErr)
}

// Items returns the decoded item channel
func (c *WebSocketClient) Items() <-chan *stream.Item {
	return c.itemChan
}

// Errors returns the non-fatal transport error channel
func (c *WebSocketClient) Errors() <-chan error {
	return c.errorChan
}

// SetCallbacks registers the lifecycle callbacks
func (c *WebSocketClient) SetCallbacks(callbacks ports.TransportCallbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = callbacks
}

// IsConnected reports whether the transport currently holds a live
// connection.
func (c *WebSocketClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// GetTransportStats returns a copy of the transport statistics
func (c *WebSocketClient) GetTransportStats() TransportStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.stats
}

// readPump decodes inbound frames until the connection dies. Broken
// frames are skipped and reported; they never kill the stream.
func (c *WebSocketClient) readPump(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.isClosing() {
				return
			}

			c.teardown()

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Log(ports.LogLevelWarn, "Stream closed by server", nil)
				c.fireDisconnect()
			} else {
				c.logger.LogError(err, "Stream read failed", nil)
				c.fireError(err.Error())
			}
			return
		}

		c.recordBytes(int64(len(message)))

		item, err := DecodeFrame(message, time.Now())
		if err != nil {
			c.recordDropped()
			c.logger.LogError(err, "Skipping undecodable frame", map[string]interface{}{
				"frame_size": len(message),
			})
			select {
			case c.errorChan <- err:
			default:
			}
			continue
		}

		select {
		case c.itemChan <- item:
			c.recordItem()
		case <-ctx.Done():
			return
		}
	}
}

// pingLoop keeps the connection alive; a failed ping means the read
// side will notice the dead connection shortly after.
func (c *WebSocketClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Log(ports.LogLevelDebug, "Ping failed", map[string]interface{}{
					"error": err.Error(),
				})
				return
			}
		}
	}
}

// teardown releases the current connection and stops its goroutines
func (c *WebSocketClient) teardown() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.cancel = nil
	c.isRunning = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *WebSocketClient) isClosing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closing
}

func (c *WebSocketClient) redialDelay(attempt int) time.Duration {
	delay := c.redial.BaseDelay << (attempt - 1)
	if delay > c.redial.MaxDelay {
		delay = c.redial.MaxDelay
	}
	return delay
}

func (c *WebSocketClient) fireConnect() {
	c.mu.RLock()
	cb := c.callbacks.OnConnect
	c.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

func (c *WebSocketClient) fireDisconnect() {
	c.mu.RLock()
	cb := c.callbacks.OnDisconnect
	c.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

func (c *WebSocketClient) fireError(reason string) {
	c.mu.RLock()
	cb := c.callbacks.OnError
	c.mu.RUnlock()
	if cb != nil {
		cb(reason)
	}
}

func (c *WebSocketClient) recordItem() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.ItemsReceived++
	c.stats.LastItemTime = time.Now()
}

func (c *WebSocketClient) recordDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.FramesDropped++
}

func (c *WebSocketClient) recordBytes(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.BytesRead += n
}

func (c *WebSocketClient) recordReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Reconnects++
}
