// Package streamapi is the bidirectional stream adapter of spec.md §4.4:
// a single /ws endpoint that answers request/response queries and
// broadcasts every newly persisted entry to every connected client.
package streamapi

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/service"
	"github.com/danor93/chat-router/internal/store"
	"github.com/danor93/chat-router/internal/workers"
)

// Adapter owns the /ws route, the live client set, and the single
// subscription to the service's message:new event stream.
type Adapter struct {
	svc     *service.Service
	pool    *workers.BroadcastPool
	clients sync.Map // connection id (uint64) -> *client
	nextID  uint64
	mu      sync.Mutex
	sub     service.Subscription
}

// wsConn is the subset of *websocket.Conn the write queue needs; tests
// substitute a fake to exercise serialization without a real socket.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}

// client serializes every write to one connection behind a FIFO queue
// drained by at most one pool task at a time, so request/response
// replies (from handleConn's read loop) and broadcast pushes (from the
// event bus) never call WriteMessage concurrently on the same conn —
// fasthttp/websocket (like the gorilla/websocket it forks) allows only
// one concurrent writer per connection — and pushes for the same client
// are written in the order they were enqueued, matching emission order.
type client struct {
	conn wsConn

	mu      sync.Mutex
	queue   [][]byte
	running bool
}

// enqueue appends b to the client's write queue and, if no drain is
// already running, submits one to the pool. Appending happens
// synchronously in the caller's goroutine, so callers that enqueue in a
// fixed order (e.g. the event bus emitting pushes one at a time) get
// that same order on the wire.
func (c *client) enqueue(pool *workers.BroadcastPool, b []byte) {
	c.mu.Lock()
	c.queue = append(c.queue, b)
	start := !c.running
	if start {
		c.running = true
	}
	c.mu.Unlock()

	if start {
		pool.Submit(func() { c.drain() })
	}
}

func (c *client) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.running = false
			c.mu.Unlock()
			return
		}
		b := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			slog.Debug("stream send failed, client likely disconnected", "error", err)
		}
	}
}

// New subscribes to svc's event stream once; the subscription lives for
// the lifetime of the Adapter.
func New(svc *service.Service, pool *workers.BroadcastPool) *Adapter {
	a := &Adapter{svc: svc, pool: pool}
	a.sub = svc.On(a.broadcast)
	return a
}

// Mount attaches the /ws route to app, matching spec.md §4.8 step 5:
// "attach stream adapter to the live listening socket".
func (a *Adapter) Mount(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(a.handleConn))
}

func (a *Adapter) handleConn(c *websocket.Conn) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.mu.Unlock()

	cl := &client{conn: c}
	a.clients.Store(id, cl)
	defer a.clients.Delete(id)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			a.writeJSON(cl, newErrorFrame("malformed JSON frame"))
			continue
		}

		a.handleRequest(cl, req)
	}
}

func (a *Adapter) handleRequest(cl *client, req request) {
	switch req.Type {
	case "health":
		stats, err := a.svc.HealthCheck()
		if err != nil {
			a.writeJSON(cl, newErrorFrame(err.Error()))
			return
		}
		a.writeJSON(cl, newResponseFrame(req.Type, stats))

	case "conversations":
		var platform *models.Platform
		if req.Platform != "" {
			p := models.Platform(req.Platform)
			platform = &p
		}
		conversations, err := a.svc.ListConversations(platform, req.Limit)
		if err != nil {
			a.writeJSON(cl, newErrorFrame(err.Error()))
			return
		}
		a.writeJSON(cl, newResponseFrame(req.Type, conversations))

	case "timeline":
		if req.Platform == "" || req.ChatID == "" {
			a.writeJSON(cl, newErrorFrame("timeline request requires platform and platformChatId"))
			return
		}
		entries, err := a.svc.GetTimeline(models.Platform(req.Platform), req.ChatID, store.TimelineQuery{
			After: req.After, Before: req.Before, Limit: req.Limit,
		})
		if err != nil {
			a.writeJSON(cl, newErrorFrame(err.Error()))
			return
		}
		a.writeJSON(cl, newResponseFrame(req.Type, entries))

	case "unified_timeline":
		entries, err := a.svc.GetUnifiedTimeline(store.TimelineQuery{After: req.After, Before: req.Before, Limit: req.Limit})
		if err != nil {
			a.writeJSON(cl, newErrorFrame(err.Error()))
			return
		}
		a.writeJSON(cl, newResponseFrame(req.Type, entries))

	default:
		a.writeJSON(cl, newErrorFrame("unknown request type: "+req.Type))
	}
}

// broadcast is invoked synchronously by the service's event bus for
// every newly persisted entry. It marshals once and ranges over the
// client set, enqueuing onto each client's own write queue — so a
// closing connection never stalls or blocks the others, and since
// enqueue happens synchronously here (one entry at a time, in emission
// order), each client's queue holds pushes in that same order
// regardless of how the pool schedules the drain tasks.
func (a *Adapter) broadcast(entry models.TimelineEntry) {
	frame := newPushFrame(entry)

	b, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal stream frame", "error", err)
		return
	}

	a.clients.Range(func(key, value any) bool {
		cl := value.(*client)
		cl.enqueue(a.pool, b)
		return true
	})
}

func (a *Adapter) writeJSON(cl *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal stream frame", "error", err)
		return
	}
	cl.enqueue(a.pool, b)
}

// Close unsubscribes from the service's event stream. Connected clients
// are closed by Fiber's shutdown path as the underlying listener stops
// accepting writes.
func (a *Adapter) Close() {
	a.svc.Off(a.sub)
}
