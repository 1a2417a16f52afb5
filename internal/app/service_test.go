package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyd/internal/domain"
	"notifyd/internal/history"
)

type mockBroadcaster struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (m *mockBroadcaster) Broadcast(msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type mockDispatcher struct {
	mu         sync.Mutex
	dispatched []domain.Message
	done       chan struct{}
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{done: make(chan struct{}, 16)}
}

func (m *mockDispatcher) Dispatch(_ context.Context, msg domain.Message) {
	m.mu.Lock()
	m.dispatched = append(m.dispatched, msg)
	m.mu.Unlock()
	m.done <- struct{}{}
}

func (m *mockDispatcher) waitForDispatch(t *testing.T) domain.Message {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher was not invoked")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatched[len(m.dispatched)-1]
}

func newTestService(t *testing.T) (*Service, *history.Buffer, *mockBroadcaster, *mockDispatcher, *clockwork.FakeClock) {
	t.Helper()
	buffer := history.NewBuffer(history.DefaultCapacity)
	broadcaster := &mockBroadcaster{}
	dispatcher := newMockDispatcher()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(buffer, broadcaster, dispatcher, clock)
	return svc, buffer, broadcaster, dispatcher, clock
}

func TestSend_RejectsEmptyMessage(t *testing.T) {
	svc, buffer, broadcaster, _, _ := newTestService(t)

	tests := []struct {
		name  string
		text  string
		image string
	}{
		{"both empty", "", ""},
		{"whitespace only", "   ", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), "Alice", tt.text, tt.image)
			assert.ErrorIs(t, err, domain.ErrEmptyMessage)
		})
	}

	assert.Equal(t, 0, buffer.Len())
	assert.Equal(t, 0, broadcaster.count())
}

func TestSend_StampsMessage(t *testing.T) {
	svc, _, _, dispatcher, clock := newTestService(t)

	msg, err := svc.Send(context.Background(), "  Alice  ", " hello ", "")

	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Alice", msg.Sender)
	assert.Equal(t, "hello", msg.Text)
	assert.Empty(t, msg.ImageDataURL)
	assert.Equal(t, clock.Now().UTC(), msg.CreatedAt)

	dispatched := dispatcher.waitForDispatch(t)
	assert.Equal(t, msg.ID, dispatched.ID)
}

func TestSend_DefaultsSenderToAnonymous(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	msg, err := svc.Send(context.Background(), "", "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "Anonymous", msg.Sender)
}

func TestSend_ImageOnlyIsValid(t *testing.T) {
	svc, buffer, broadcaster, _, _ := newTestService(t)

	msg, err := svc.Send(context.Background(), "Bob", "", "data:image/png;base64,iVBOR")

	require.NoError(t, err)
	assert.Empty(t, msg.Text)
	assert.Equal(t, "data:image/png;base64,iVBOR", msg.ImageDataURL)
	assert.Equal(t, 1, buffer.Len())
	assert.Equal(t, 1, broadcaster.count())
}

func TestSend_AppendsToHistoryAndBroadcastsInOrder(t *testing.T) {
	svc, buffer, broadcaster, _, _ := newTestService(t)

	first, err := svc.Send(context.Background(), "Alice", "first", "")
	require.NoError(t, err)
	second, err := svc.Send(context.Background(), "Alice", "second", "")
	require.NoError(t, err)

	recent := buffer.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, first.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	require.Len(t, broadcaster.messages, 2)
	assert.Equal(t, first.ID, broadcaster.messages[0].ID)
	assert.Equal(t, second.ID, broadcaster.messages[1].ID)
}

func TestSend_DispatchRunsDetached(t *testing.T) {
	// Intake returns before the dispatch goroutine settles; the dispatcher
	// still sees the message afterwards.
	buffer := history.NewBuffer(history.DefaultCapacity)
	dispatcher := newMockDispatcher()
	svc := NewService(buffer, &mockBroadcaster{}, dispatcher, clockwork.NewRealClock())

	msg, err := svc.Send(context.Background(), "Alice", "hi", "")

	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	dispatcher.waitForDispatch(t)
}
