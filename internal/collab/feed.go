package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GodingWal/voiceclone-service/internal/backoff"
)

// StatusEvent is one message on the collaboration feed.
type StatusEvent struct {
	Type      string          `json:"type"`
	JobID     string          `json:"job_id,omitempty"`
	State     string          `json:"state,omitempty"`
	Progress  int             `json:"progress,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Handler receives feed events. It is called from the feed's read
// goroutine and must not block.
type Handler func(StatusEvent)

// Config contains collaboration feed configuration
type Config struct {
	URL          string
	APIKey       string
	DialTimeout  time.Duration
	MaxReconnect int
}

// FeedStats describes the feed's connection history.
type FeedStats struct {
	Connected      bool   `json:"connected"`
	EventsReceived uint64 `json:"events_received"`
	Reconnects     uint64 `json:"reconnects"`
	LastError      string `json:"last_error,omitempty"`
}

// Feed maintains a WebSocket subscription to the collaboration service.
type Feed struct {
	config  Config
	logger  *slog.Logger
	handler Handler
	policy  backoff.Policy
	dialer  *websocket.Dialer

	mu             sync.RWMutex
	connected      bool
	eventsReceived uint64
	reconnects     uint64
	lastError      string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a feed client. Run must be called to start it.
func NewFeed(config Config, handler Handler, logger *slog.Logger) (*Feed, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("feed URL cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 10 * time.Second
	}
	if config.MaxReconnect <= 0 {
		config.MaxReconnect = 8
	}

	return &Feed{
		config:  config,
		logger:  logger,
		handler: handler,
		policy:  backoff.New(time.Second, 30*time.Second, config.MaxReconnect),
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.DialTimeout,
		},
	}, nil
}

// Start launches the feed's connect-and-read loop.
func (f *Feed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})

	go f.run(ctx)
}

// Stop closes the feed and waits for the read loop to exit.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

// Stats returns a snapshot of the feed's connection state.
func (f *Feed) Stats() FeedStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return FeedStats{
		Connected:      f.connected,
		EventsReceived: f.eventsReceived,
		Reconnects:     f.reconnects,
		LastError:      f.lastError,
	}
}

// run reconnects with exponential backoff until the attempt budget is
// spent or the context is cancelled. A successful session resets the
// attempt counter.
func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := f.session(ctx)
		f.setConnected(false)
		if ctx.Err() != nil {
			return
		}

		if err == nil {
			// Clean close from the server side, resubscribe fresh.
			attempt = 0
			continue
		}

		f.recordError(err)
		attempt++
		if f.policy.Exhausted(attempt) {
			f.logger.Error("Collaboration feed giving up",
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			return
		}

		f.logger.Warn("Collaboration feed reconnecting",
			slog.Int("attempt", attempt),
			slog.Duration("delay", f.policy.Delay(attempt)),
			slog.String("error", err.Error()),
		)
		f.bumpReconnects()

		if err := f.policy.Wait(ctx, attempt); err != nil {
			return
		}
	}
}

// session dials the feed and pumps events until the connection drops.
func (f *Feed) session(ctx context.Context) error {
	header := map[string][]string{}
	if f.config.APIKey != "" {
		header["Authorization"] = []string{"Bearer " + f.config.APIKey}
	}

	conn, _, err := f.dialer.DialContext(ctx, f.config.URL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	f.setConnected(true)
	f.logger.Info("Collaboration feed connected", slog.String("url", f.config.URL))

	// Unblock ReadMessage when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		var event StatusEvent
		if err := json.Unmarshal(data, &event); err != nil {
			f.logger.Warn("Dropping malformed feed event", slog.String("error", err.Error()))
			continue
		}

		f.bumpEvents()
		f.handler(event)
	}
}

func (f *Feed) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func (f *Feed) recordError(err error) {
	f.mu.Lock()
	f.lastError = err.Error()
	f.mu.Unlock()
}

func (f *Feed) bumpEvents() {
	f.mu.Lock()
	f.eventsReceived++
	f.mu.Unlock()
}

func (f *Feed) bumpReconnects() {
	f.mu.Lock()
	f.reconnects++
	f.mu.Unlock()
}
