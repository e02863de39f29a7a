package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id          string
	workspaceID int32
	messages    [][]byte
	mu          sync.Mutex
	closed      bool
}

func newMockClient(id string, workspaceID int32) *mockClient {
	return &mockClient{
		id:          id,
		workspaceID: workspaceID,
		messages:    make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) WorkspaceID() int32 {
	return m.workspaceID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", 1)
	client2 := newMockClient("client-2", 1)
	client3 := newMockClient("client-3", 2)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))
	assert.Equal(t, 0, hub.ClientCount(999))

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(1))
	assert.Equal(t, 0, hub.ClientCount(2))
}

func TestHub_BroadcastScopedToWorkspace(t *testing.T) {
	hub := NewHub()

	inScope := newMockClient("client-1", 1)
	outOfScope := newMockClient("client-2", 2)
	hub.Register(inScope)
	hub.Register(outOfScope)

	hub.Broadcast(1, BalanceRecalculate("planning_transaction.created"))

	// Sends are asynchronous; give the goroutines a moment.
	require.Eventually(t, func() bool {
		return len(inScope.GetMessages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, outOfScope.GetMessages())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(inScope.GetMessages()[0], &decoded))
	assert.Equal(t, "balance.recalculate", decoded["type"])
}

func TestHub_BroadcastToEmptyWorkspace(t *testing.T) {
	hub := NewHub()

	// Must not panic or block with no registered clients.
	hub.Broadcast(42, PlanningDeleted(nil))
	assert.Equal(t, 0, hub.ClientCount(42))
}
