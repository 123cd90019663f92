package realtime

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/stream"
)

// replayScanBuffer caps one JSONL line
const replayScanBuffer = 1024 * 1024

// ReplayTransport implements the RealtimeTransport interface by
// replaying a JSONL frame capture from disk. Each line holds one wire
// frame; lines are emitted in order with a fixed pacing interval, and
// reconnecting replays the file from the top. Useful for demos and
// deterministic local testing without a backend.
type ReplayTransport struct {
	path      string
	interval  time.Duration
	itemChan  chan *stream.Item
	errorChan chan error
	callbacks ports.TransportCallbacks
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	closing   bool
	logger    ports.LoggingGateway
	mu        sync.RWMutex
}

// NewReplayTransport creates a transport replaying the given file. A
// non-positive interval emits as fast as the consumer accepts.
func NewReplayTransport(path string, interval time.Duration, logger ports.LoggingGateway) *ReplayTransport {
	return &ReplayTransport{
		path:      path,
		interval:  interval,
		itemChan:  make(chan *stream.Item, 256),
		errorChan: make(chan error, 64),
		logger:    logger,
	}
}

// Connect opens the capture file and starts replaying it
func (r *ReplayTransport) Connect(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("replay is already running")
	}
	r.mu.Unlock()

	file, err := os.Open(r.path)
	if err != nil {
		return ports.NewTransportError("replay", r.path, err)
	}

	replayCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.isRunning = true
	r.closing = false
	r.mu.Unlock()

	r.logger.Log(ports.LogLevelInfo, "Replaying stream capture", map[string]interface{}{
		"path": r.path,
	})

	go r.replay(replayCtx, file, done)

	r.fireConnect()
	return nil
}

// Disconnect stops the replay
func (r *ReplayTransport) Disconnect() error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.closing = true
	cancel := r.cancel
	done := r.done
	r.isRunning = false
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

// Reconnect replays the file from the beginning
func (r *ReplayTransport) Reconnect() error {
	r.mu.RLock()
	running := r.isRunning
	r.mu.RUnlock()
	if running {
		return nil
	}
	return r.Connect(context.Background())
}

// Items returns the decoded item channel
func (r *ReplayTransport) Items() <-chan *stream.Item {
	return r.itemChan
}

// Errors returns the non-fatal transport error channel
func (r *ReplayTransport) Errors() <-chan error {
	return r.errorChan
}

// SetCallbacks registers the lifecycle callbacks
func (r *ReplayTransport) SetCallbacks(callbacks ports.TransportCallbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = callbacks
}

// replay pumps the file line by line, then reports a disconnect so the
// status bar reflects that the capture ran out.
func (r *ReplayTransport) replay(ctx context.Context, file *os.File, done chan struct{}) {
	defer close(done)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), replayScanBuffer)

	emitted := 0
	skipped := 0

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		item, err := DecodeFrame([]byte(line), time.Now())
		if err != nil {
			skipped++
			r.logger.LogError(err, "Skipping undecodable replay line", map[string]interface{}{
				"line": emitted + skipped,
			})
			select {
			case r.errorChan <- err:
			default:
			}
			continue
		}

		select {
		case r.itemChan <- item:
			emitted++
		case <-ctx.Done():
			return
		}

		if r.interval > 0 {
			select {
			case <-time.After(r.interval):
			case <-ctx.Done():
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		r.logger.LogError(err, "Replay read failed", nil)
		r.finish()
		r.fireError(err.Error())
		return
	}

	r.logger.Log(ports.LogLevelInfo, "Replay finished", map[string]interface{}{
		"emitted": emitted,
		"skipped": skipped,
	})
	r.finish()
	r.fireDisconnect()
}

// finish marks the transport stopped after the capture ends on its own
func (r *ReplayTransport) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isRunning = false
}

func (r *ReplayTransport) fireConnect() {
	r.mu.RLock()
	cb := r.callbacks.OnConnect
	r.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

func (r *ReplayTransport) fireDisconnect() {
	r.mu.RLock()
	cb := r.callbacks.OnDisconnect
	closing := r.closing
	r.mu.RUnlock()
	if cb != nil && !closing {
		cb()
	}
}

func (r *ReplayTransport) fireError(reason string) {
	r.mu.RLock()
	cb := r.callbacks.OnError
	closing := r.closing
	r.mu.RUnlock()
	if cb != nil && !closing {
		cb(reason)
	}
}
