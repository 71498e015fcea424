package streamapi

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/service"
	"github.com/danor93/chat-router/internal/store"
	"github.com/danor93/chat-router/internal/workers"
)

func newTestInboundMessage() models.InboundMessage {
	ts := int64(1700000000000)
	text := "hello"
	return models.InboundMessage{
		Platform:          models.PlatformTelegram,
		PlatformMessageID: "msg-1",
		PlatformChatID:    "chat-1",
		SenderName:        "Alice",
		SenderID:          "user-1",
		Text:              &text,
		Timestamp:         &ts,
	}
}

// fakeConn records writes and can report whether two were ever in
// flight at the same instant, standing in for the "one concurrent
// writer per connection" contract fasthttp/websocket documents.
type fakeConn struct {
	writeDelay time.Duration

	mu     sync.Mutex
	writes [][]byte

	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	n := f.active.Add(1)
	for {
		cur := f.maxActive.Load()
		if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.writeDelay > 0 {
		time.Sleep(f.writeDelay)
	}
	f.mu.Lock()
	f.writes = append(f.writes, data)
	f.mu.Unlock()
	f.active.Add(-1)
	return nil
}

func (f *fakeConn) snapshot() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

func newTestPool() *workers.BroadcastPool {
	return workers.NewBroadcastPool(workers.PoolConfig{Workers: 4})
}

func TestClient_EnqueueNeverWritesConcurrently(t *testing.T) {
	fc := &fakeConn{writeDelay: 5 * time.Millisecond}
	cl := &client{conn: fc}
	pool := newTestPool()
	defer pool.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			cl.enqueue(pool, []byte{byte(i)})
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return len(fc.snapshot()) == 20
	}, time.Second, time.Millisecond, "all 20 writes should eventually complete")

	assert.Equal(t, int32(1), fc.maxActive.Load(), "no two writes to the same client should ever be in flight together")
}

func TestClient_EnqueuePreservesSubmissionOrder(t *testing.T) {
	fc := &fakeConn{}
	cl := &client{conn: fc}
	pool := newTestPool()
	defer pool.Shutdown()

	// Enqueue is called synchronously and sequentially here, mirroring
	// how broadcast() calls it once per emission, in emission order.
	for i := 0; i < 10; i++ {
		cl.enqueue(pool, []byte{byte(i)})
	}

	assert.Eventually(t, func() bool {
		return len(fc.snapshot()) == 10
	}, time.Second, time.Millisecond)

	writes := fc.snapshot()
	for i, w := range writes {
		require.Len(t, w, 1)
		assert.Equal(t, byte(i), w[0], "writes must land on the wire in the order they were enqueued")
	}
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	svc := service.New(st)
	pool := newTestPool()
	t.Cleanup(pool.Shutdown)
	return New(svc, pool)
}

func decodeFrame(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHandleRequest_HealthReturnsResponseFrame(t *testing.T) {
	a := newTestAdapter(t)
	fc := &fakeConn{}
	cl := &client{conn: fc}

	a.handleRequest(cl, request{Type: "health"})

	assert.Eventually(t, func() bool { return len(fc.snapshot()) == 1 }, time.Second, time.Millisecond)
	frame := decodeFrame(t, fc.snapshot()[0])
	assert.Equal(t, "response", frame["type"])
	assert.Equal(t, "health", frame["requestType"])
}

func TestHandleRequest_TimelineMissingChatIDReturnsErrorFrame(t *testing.T) {
	a := newTestAdapter(t)
	fc := &fakeConn{}
	cl := &client{conn: fc}

	a.handleRequest(cl, request{Type: "timeline", Platform: "telegram"})

	assert.Eventually(t, func() bool { return len(fc.snapshot()) == 1 }, time.Second, time.Millisecond)
	frame := decodeFrame(t, fc.snapshot()[0])
	assert.Equal(t, "error", frame["type"])
}

func TestHandleRequest_UnknownTypeReturnsErrorFrame(t *testing.T) {
	a := newTestAdapter(t)
	fc := &fakeConn{}
	cl := &client{conn: fc}

	a.handleRequest(cl, request{Type: "bogus"})

	assert.Eventually(t, func() bool { return len(fc.snapshot()) == 1 }, time.Second, time.Millisecond)
	frame := decodeFrame(t, fc.snapshot()[0])
	assert.Equal(t, "error", frame["type"])
}

func TestBroadcast_DeliversPushFrameToEveryClient(t *testing.T) {
	a := newTestAdapter(t)
	fc1, fc2 := &fakeConn{}, &fakeConn{}
	a.clients.Store(uint64(1), &client{conn: fc1})
	a.clients.Store(uint64(2), &client{conn: fc2})

	entry, err := a.svc.IngestMessage(newTestInboundMessage())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(fc1.snapshot()) == 1 && len(fc2.snapshot()) == 1
	}, time.Second, time.Millisecond)

	frame := decodeFrame(t, fc1.snapshot()[0])
	assert.Equal(t, "new_message", frame["type"])
	assert.Equal(t, float64(entry.ID), frame["entry"].(map[string]any)["id"])
}
