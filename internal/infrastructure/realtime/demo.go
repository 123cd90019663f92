package realtime

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/core/stream"
)

// Demo content pools. Weighted toward quiet traffic so the occasional
// critical issue stands out the way a real feed feels.
var (
	demoServices = []stream.ServiceID{"minu-find", "minu-apply", "minu-track", "minu-bill"}

	demoCriticalTitles = []string{
		"Database connection pool exhausted",
		"Payment provider unreachable",
		"Crawler fleet down",
	}
	demoHighTitles = []string{
		"Queue depth above threshold",
		"Error rate spike on /api/search",
		"Certificate expires in 48 hours",
	}
	demoMediumTitles = []string{
		"Slow query detected",
		"Retry budget half consumed",
		"Disk usage at 70%",
	}
	demoLowTitles = []string{
		"Stale cache entry",
		"Deprecated endpoint still in use",
		"Log volume slightly elevated",
	}

	demoEventMessages = map[stream.EventType][]string{
		stream.EventMilestoneReached: {
			"Crawled 1M listings",
			"10k applications submitted",
			"First invoice batch processed",
		},
		stream.EventTaskCompleted: {
			"Nightly sync finished",
			"Index rebuild completed",
			"Backfill job done",
		},
		stream.EventTaskCreated: {
			"Scheduled weekly report",
			"Queued reindex task",
		},
		stream.EventDeployFinished: {
			"Deployed v2.14.3",
			"Rolled out config change",
		},
	}
)

// DemoTransport implements the RealtimeTransport interface with a
// local random generator. It exists so the dashboard can be exercised
// without a backend or a capture file.
type DemoTransport struct {
	rng       *rand.Rand
	minDelay  time.Duration
	maxDelay  time.Duration
	itemChan  chan *stream.Item
	errorChan chan error
	callbacks ports.TransportCallbacks
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	counter   int
	logger    ports.LoggingGateway
	mu        sync.RWMutex
}

// NewDemoTransport creates a demo transport with the given seed. The
// same seed yields the same item sequence.
func NewDemoTransport(seed int64, logger ports.LoggingGateway) *DemoTransport {
	return &DemoTransport{
		rng:       rand.New(rand.NewSource(seed)),
		minDelay:  300 * time.Millisecond,
		maxDelay:  1500 * time.Millisecond,
		itemChan:  make(chan *stream.Item, 256),
		errorChan: make(chan error, 8),
		logger:    logger,
	}
}

// Connect starts the generator
func (d *DemoTransport) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return fmt.Errorf("demo stream is already running")
	}

	genCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done
	d.isRunning = true
	d.mu.Unlock()

	d.logger.Log(ports.LogLevelInfo, "Starting demo stream", nil)

	go d.generate(genCtx, done)

	d.fireConnect()
	return nil
}

// Disconnect stops the generator
func (d *DemoTransport) Disconnect() error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	cancel := d.cancel
	done := d.done
	d.isRunning = false
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

// Reconnect resumes generation
func (d *DemoTransport) Reconnect() error {
	d.mu.RLock()
	running := d.isRunning
	d.mu.RUnlock()
	if running {
		return nil
	}
	return d.Connect(context.Background())
}

// Items returns the generated item channel
func (d *DemoTransport) Items() <-chan *stream.Item {
	return d.itemChan
}

// Errors returns the transport error channel; the demo never uses it
func (d *DemoTransport) Errors() <-chan error {
	return d.errorChan
}

// SetCallbacks registers the lifecycle callbacks
func (d *DemoTransport) SetCallbacks(callbacks ports.TransportCallbacks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = callbacks
}

func (d *DemoTransport) generate(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		d.mu.Lock()
		delay := d.minDelay + time.Duration(d.rng.Int63n(int64(d.maxDelay-d.minDelay)))
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		item := d.nextItem()
		if item == nil {
			continue
		}

		select {
		case d.itemChan <- item:
		case <-ctx.Done():
			return
		}
	}
}

// nextItem rolls the next random record: roughly sixty percent events,
// the rest issues skewed toward the lower severities.
func (d *DemoTransport) nextItem() *stream.Item {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.counter++
	now := time.Now()
	service := demoServices[d.rng.Intn(len(demoServices))]

	if d.rng.Intn(100) < 60 {
		types := []stream.EventType{
			stream.EventMilestoneReached,
			stream.EventTaskCompleted,
			stream.EventTaskCreated,
			stream.EventDeployFinished,
		}
		eventType := types[d.rng.Intn(len(types))]
		messages := demoEventMessages[eventType]

		event := stream.Event{
			ID:        fmt.Sprintf("demo-evt-%d", d.counter),
			ServiceID: service,
			EventType: eventType,
			Message:   messages[d.rng.Intn(len(messages))],
			CreatedAt: now,
		}
		item, err := stream.NewEventItem(event, now)
		if err != nil {
			return nil
		}
		return item
	}

	severity, title := d.rollSeverity()
	issue := stream.Issue{
		ID:        fmt.Sprintf("demo-iss-%d", d.counter),
		ServiceID: service,
		Severity:  severity,
		Status:    stream.StatusOpen,
		Title:     title,
		CreatedAt: now,
	}
	item, err := stream.NewIssueItem(issue, now)
	if err != nil {
		return nil
	}
	return item
}

func (d *DemoTransport) rollSeverity() (stream.Severity, string) {
	roll := d.rng.Intn(100)
	switch {
	case roll < 10:
		return stream.SeverityCritical, demoCriticalTitles[d.rng.Intn(len(demoCriticalTitles))]
	case roll < 35:
		return stream.SeverityHigh, demoHighTitles[d.rng.Intn(len(demoHighTitles))]
	case roll < 70:
		return stream.SeverityMedium, demoMediumTitles[d.rng.Intn(len(demoMediumTitles))]
	default:
		return stream.SeverityLow, demoLowTitles[d.rng.Intn(len(demoLowTitles))]
	}
}

func (d *DemoTransport) fireConnect() {
	d.mu.RLock()
	cb := d.callbacks.OnConnect
	d.mu.RUnlock()
	if cb != nil {
		cb()
	}
}
