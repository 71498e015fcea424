// Package outbound is the platform-side delivery loop of spec.md §4.6:
// it connects to the stream adapter as a client, filters pushed entries
// for one platform, chunks text to the platform's size cap, and calls
// the platform send API sequentially per chunk.
package outbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danor93/chat-router/internal/models"
)

// state is the connection lifecycle of spec.md §4.6:
// disconnected → connecting → open → closing → disconnected.
type state int

const (
	stateDisconnected state = iota
	stateConnecting
	stateOpen
	stateClosing
)

const reconnectDelay = 3 * time.Second

// pushFrame mirrors streamapi's wire shape for the unsolicited
// new_message push; the adapter only needs Type and Entry.
type pushFrame struct {
	Type  string               `json:"type"`
	Entry models.TimelineEntry `json:"entry"`
}

// Adapter is one platform's outbound-delivery loop. It owns its own
// websocket connection, independent of any other platform's adapter.
type Adapter struct {
	url       string
	platform  models.Platform
	sender    Sender
	chunkCap  int

	mu          sync.Mutex
	state       state
	conn        *websocket.Conn
	intentional bool
	reconnectTimer *time.Timer
}

// New builds an Adapter for a single platform. chunkCap defaults to
// DefaultChunkCap when zero.
func New(wsURL string, platform models.Platform, sender Sender, chunkCap int) *Adapter {
	if chunkCap <= 0 {
		chunkCap = DefaultChunkCap
	}
	return &Adapter{url: wsURL, platform: platform, sender: sender, chunkCap: chunkCap, state: stateDisconnected}
}

// Start opens the first connection. Subsequent reconnects are scheduled
// internally on unintentional close.
func (a *Adapter) Start() {
	a.mu.Lock()
	a.intentional = false
	a.mu.Unlock()
	a.connect()
}

// Stop performs an intentional disconnect: cancels any pending reconnect
// timer and closes the live connection without scheduling another
// reconnect.
func (a *Adapter) Stop() {
	a.mu.Lock()
	a.intentional = true
	a.state = stateClosing
	if a.reconnectTimer != nil {
		a.reconnectTimer.Stop()
		a.reconnectTimer = nil
	}
	conn := a.conn
	a.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	a.mu.Lock()
	a.state = stateDisconnected
	a.mu.Unlock()
}

// connect never resets a.intentional itself: it only reads that flag, so
// an in-flight connect (dial in progress, or a reconnect timer that had
// already fired) always yields to a concurrent Stop() rather than
// clobbering it and leaving a live connection behind.
func (a *Adapter) connect() {
	a.mu.Lock()
	if a.intentional {
		a.mu.Unlock()
		return
	}
	a.state = stateConnecting
	a.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(a.url, nil)
	if err != nil {
		slog.Error("outbound adapter failed to connect", "platform", a.platform, "error", err)
		a.scheduleReconnect()
		return
	}

	a.mu.Lock()
	if a.intentional {
		a.mu.Unlock()
		_ = conn.Close()
		return
	}
	a.conn = conn
	a.state = stateOpen
	a.mu.Unlock()

	slog.Info("outbound adapter connected", "platform", a.platform, "url", a.url)
	go a.readLoop(conn)
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.handleClose()
			return
		}
		a.handleFrame(raw)
	}
}

func (a *Adapter) handleFrame(raw []byte) {
	var frame pushFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Debug("outbound adapter received non-push frame", "error", err)
		return
	}
	if frame.Type != "new_message" {
		return
	}
	if !a.shouldDeliver(frame.Entry) {
		return
	}
	a.deliver(frame.Entry)
}

// shouldDeliver is the filter predicate of spec.md §4.6: out-direction,
// matching platform, non-null and non-empty text.
func (a *Adapter) shouldDeliver(entry models.TimelineEntry) bool {
	return entry.Direction == models.DirectionOut &&
		entry.Platform == a.platform &&
		entry.Text != nil && *entry.Text != ""
}

func (a *Adapter) deliver(entry models.TimelineEntry) {
	chunks := Chunk(*entry.Text, a.chunkCap)
	ctx := context.Background()
	for _, chunk := range chunks {
		if err := a.sender.SendText(ctx, entry.PlatformChatID, chunk); err != nil {
			slog.Error("platform delivery failed", "platform", a.platform, "chat_id", entry.PlatformChatID, "error", err)
			// Logged and swallowed: delivery errors never disconnect the
			// socket nor halt processing of subsequent pushes.
		}
	}
}

func (a *Adapter) handleClose() {
	a.mu.Lock()
	wasIntentional := a.intentional
	a.state = stateDisconnected
	a.conn = nil
	a.mu.Unlock()

	if wasIntentional {
		return
	}
	a.scheduleReconnect()
}

func (a *Adapter) scheduleReconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.intentional {
		return
	}
	a.reconnectTimer = time.AfterFunc(reconnectDelay, a.connect)
}
