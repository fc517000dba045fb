// Package devtools serves a live inspection endpoint for the reactive
// scheduler: Prometheus metrics over HTTP and a WebSocket stream of
// flush events.
//
// Mount it on any router:
//
//	insp := devtools.NewInspector()
//	defer insp.Close()
//	http.ListenAndServe(":6161", insp.Router())
package devtools

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// FlushEvent is the JSON payload streamed to connected clients.
type FlushEvent struct {
	// Type is one of "flush_start", "watcher_ran", "flush_end",
	// "runaway".
	Type string `json:"type"`

	// QueueDepth is set on flush_start events.
	QueueDepth int `json:"queue_depth,omitempty"`

	// WatcherID is set on watcher_ran and runaway events.
	WatcherID uint64 `json:"watcher_id,omitempty"`

	// Runs and TookMicros are set on flush_end events.
	Runs       int   `json:"runs,omitempty"`
	TookMicros int64 `json:"took_micros,omitempty"`

	Time time.Time `json:"time"`
}

// InspectorConfig configures the inspector.
type InspectorConfig struct {
	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger

	// Gatherer serves the /metrics endpoint.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// ClientBuffer is the per-client event buffer. Clients that fall
	// this far behind are disconnected. Default: 256.
	ClientBuffer int

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: accept all (the inspector is a development tool).
	CheckOrigin func(r *http.Request) bool
}

// InspectorOption configures the inspector.
type InspectorOption func(*InspectorConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) InspectorOption {
	return func(c *InspectorConfig) {
		c.Logger = logger
	}
}

// WithGatherer sets the Prometheus gatherer for /metrics.
func WithGatherer(g prometheus.Gatherer) InspectorOption {
	return func(c *InspectorConfig) {
		c.Gatherer = g
	}
}

// WithClientBuffer sets the per-client event buffer size.
func WithClientBuffer(n int) InspectorOption {
	return func(c *InspectorConfig) {
		c.ClientBuffer = n
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) InspectorOption {
	return func(c *InspectorConfig) {
		c.CheckOrigin = fn
	}
}

func defaultInspectorConfig() InspectorConfig {
	return InspectorConfig{
		Logger:       slog.Default(),
		Gatherer:     prometheus.DefaultGatherer,
		ClientBuffer: 256,
		CheckOrigin:  func(*http.Request) bool { return true },
	}
}

// Inspector streams scheduler flush events to WebSocket clients and
// serves Prometheus metrics.
type Inspector struct {
	config   InspectorConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	remove func()
}

type client struct {
	conn *websocket.Conn
	send chan FlushEvent
	done chan struct{}
}

// NewInspector creates an inspector and attaches it to the scheduler.
// Call Close to detach it and disconnect clients.
func NewInspector(opts ...InspectorOption) *Inspector {
	config := defaultInspectorConfig()
	for _, opt := range opts {
		opt(&config)
	}

	insp := &Inspector{
		config: config,
		logger: config.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
	}
	insp.remove = reactive.RegisterFlushObserver(insp)
	return insp
}

// Router returns the inspector's HTTP handler:
//
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus exposition
//	GET /events   WebSocket stream of FlushEvent JSON
func (insp *Inspector) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(insp.config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/events", insp.handleEvents)

	return r
}

// handleEvents upgrades the connection and streams flush events until
// the client disconnects or falls too far behind.
func (insp *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := insp.upgrader.Upgrade(w, r, nil)
	if err != nil {
		insp.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan FlushEvent, insp.config.ClientBuffer),
		done: make(chan struct{}),
	}

	insp.mu.Lock()
	if insp.closed {
		insp.mu.Unlock()
		conn.Close()
		return
	}
	insp.clients[c] = struct{}{}
	insp.mu.Unlock()

	insp.logger.Debug("inspector client connected", "remote", conn.RemoteAddr())

	go insp.writeLoop(c)

	// Drain the read side so close frames and pings are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	insp.dropClient(c)
}

func (insp *Inspector) writeLoop(c *client) {
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				c.conn.Close()
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				insp.dropClient(c)
				return
			}
		case <-c.done:
			c.conn.Close()
			return
		}
	}
}

func (insp *Inspector) dropClient(c *client) {
	insp.mu.Lock()
	_, present := insp.clients[c]
	if present {
		delete(insp.clients, c)
		close(c.done)
	}
	insp.mu.Unlock()
	if present {
		c.conn.Close()
		insp.logger.Debug("inspector client disconnected", "remote", c.conn.RemoteAddr())
	}
}

// broadcast fans an event out without blocking the scheduler. Clients
// whose buffer is full are dropped.
func (insp *Inspector) broadcast(ev FlushEvent) {
	insp.mu.Lock()
	var slow []*client
	for c := range insp.clients {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	insp.mu.Unlock()

	for _, c := range slow {
		insp.logger.Warn("dropping slow inspector client", "remote", c.conn.RemoteAddr())
		insp.dropClient(c)
	}
}

// FlushStart implements reactive.FlushObserver.
func (insp *Inspector) FlushStart(queued int) {
	insp.broadcast(FlushEvent{Type: "flush_start", QueueDepth: queued, Time: time.Now()})
}

// WatcherRan implements reactive.FlushObserver.
func (insp *Inspector) WatcherRan(id uint64) {
	insp.broadcast(FlushEvent{Type: "watcher_ran", WatcherID: id, Time: time.Now()})
}

// FlushEnd implements reactive.FlushObserver.
func (insp *Inspector) FlushEnd(took time.Duration, runs int) {
	insp.broadcast(FlushEvent{
		Type:       "flush_end",
		Runs:       runs,
		TookMicros: took.Microseconds(),
		Time:       time.Now(),
	})
}

// Runaway implements reactive.FlushObserver.
func (insp *Inspector) Runaway(id uint64) {
	insp.broadcast(FlushEvent{Type: "runaway", WatcherID: id, Time: time.Now()})
}

// Close detaches the inspector from the scheduler and disconnects all
// clients.
func (insp *Inspector) Close() {
	if insp.remove != nil {
		insp.remove()
		insp.remove = nil
	}

	insp.mu.Lock()
	insp.closed = true
	clients := make([]*client, 0, len(insp.clients))
	for c := range insp.clients {
		clients = append(clients, c)
	}
	insp.clients = make(map[*client]struct{})
	insp.mu.Unlock()

	for _, c := range clients {
		close(c.done)
		c.conn.Close()
	}
}
