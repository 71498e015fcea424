package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st)
}

func int64Ptr(v int64) *int64 { return &v }
func textPtr(v string) *string { return &v }

func validInbound() models.InboundMessage {
	return models.InboundMessage{
		Platform:          models.PlatformTelegram,
		PlatformMessageID: "m1",
		PlatformChatID:    "c1",
		SenderName:        "Alice",
		SenderID:          "u1",
		Text:              textPtr("hi"),
		Timestamp:         int64Ptr(1700000000000),
	}
}

func TestIngestMessage_RejectsMissingFields(t *testing.T) {
	svc := newTestService(t)

	m := validInbound()
	m.SenderName = ""
	_, err := svc.IngestMessage(m)
	require.Error(t, err)
	appErr, ok := errors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestIngestMessage_NullTimestampRejected_ZeroAllowed(t *testing.T) {
	svc := newTestService(t)

	m := validInbound()
	m.Timestamp = nil
	_, err := svc.IngestMessage(m)
	require.Error(t, err)

	m2 := validInbound()
	m2.Timestamp = int64Ptr(0)
	entry, err := svc.IngestMessage(m2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.Timestamp)
}

func TestRecordResponse_MintsIncrementingSyntheticID(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.RecordResponse(models.OutboundRequest{Platform: models.PlatformTelegram, PlatformChatID: "c1", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "router-1", first.PlatformMessageID)

	second, err := svc.RecordResponse(models.OutboundRequest{Platform: models.PlatformTelegram, PlatformChatID: "c1", Text: "hello again"})
	require.NoError(t, err)
	assert.Equal(t, "router-2", second.PlatformMessageID)
}

func TestRecordResponse_OverwritesLabelToSystem(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.IngestMessage(validInbound())
	require.NoError(t, err)

	_, err = svc.RecordResponse(models.OutboundRequest{Platform: models.PlatformTelegram, PlatformChatID: "c1", Text: "hi back"})
	require.NoError(t, err)

	conv, ok, err := svc.GetConversation(models.PlatformTelegram, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "System", conv.Label)
}

func TestEventBus_EmitsInOrderSynchronously(t *testing.T) {
	svc := newTestService(t)

	var mu sync.Mutex
	var seen []int64
	svc.On(func(e models.TimelineEntry) {
		mu.Lock()
		seen = append(seen, e.ID)
		mu.Unlock()
	})

	for i := 0; i < 3; i++ {
		m := validInbound()
		m.PlatformMessageID = "evt"
		_, err := svc.IngestMessage(m)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, []int64{1, 2, 3}, seen)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	svc := newTestService(t)

	count := 0
	sub := svc.On(func(models.TimelineEntry) { count++ })
	svc.Off(sub)

	_, err := svc.IngestMessage(validInbound())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
