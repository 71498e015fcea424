package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/service"
	"github.com/danor93/chat-router/internal/store"
	"github.com/danor93/chat-router/internal/trigger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	svc := service.New(st)
	return New(svc, trigger.Noop{}, "http://localhost:3100")
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func TestHandleIngest_ReturnsCreatedWithEntry(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodPost, "/api/messages", map[string]any{
		"platform": "telegram", "platformMessageId": "m1", "platformChatId": "c1",
		"senderName": "Alice", "senderId": "u1", "timestamp": 1700000000000, "text": "hi",
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "in", body["direction"])
	assert.NotEmpty(t, body["createdAt"])
}

func TestHandleIngest_ValidationFailure_Returns400(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodPost, "/api/messages", map[string]any{
		"platform": "telegram", "platformChatId": "c1", "senderId": "u1", "timestamp": 1,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestHandleGetConversation_NotFound_Returns404(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodGet, "/api/conversations/telegram/missing", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Conversation not found", body["error"])
}

func TestHandleRecordResponse_ReturnsSyntheticID(t *testing.T) {
	s := newTestServer(t)

	_, ingested := doJSON(t, s, http.MethodPost, "/api/messages", map[string]any{
		"platform": "telegram", "platformMessageId": "m1", "platformChatId": "c1",
		"senderName": "Alice", "senderId": "u1", "timestamp": 1700000000000, "text": "hi",
	})
	require.Equal(t, float64(1), ingested["id"])

	resp, body := doJSON(t, s, http.MethodPost, "/api/responses", map[string]any{
		"platform": "telegram", "platformChatId": "c1", "text": "hello", "inReplyTo": 1,
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "router-1", body["platformMessageId"])
	assert.Equal(t, "System", body["senderName"])
}

func TestHandleConversationTimeline_CursorPagination(t *testing.T) {
	s := newTestServer(t)

	for i := 1; i <= 5; i++ {
		doJSON(t, s, http.MethodPost, "/api/messages", map[string]any{
			"platform": "telegram", "platformMessageId": "m", "platformChatId": "c1",
			"senderName": "Alice", "senderId": "u1", "timestamp": i,
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/timeline/telegram/c1?before=4&limit=2", nil)
	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []models.TimelineEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, int64(2), entries[1].ID)
}

func TestHandleHealth_ReportsStats(t *testing.T) {
	s := newTestServer(t)

	resp, body := doJSON(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(0), body["messageCount"])
}
