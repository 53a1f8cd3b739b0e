// Package transport drives the command dispatcher from the wire: a
// plain TCP accept loop (tcp.go) and a secondary WebSocket ingress
// (websocket.go), both feeding the same engine.Dispatcher.Execute
// entry point. Adapted from the teacher's libspine/transport package
// (ConnectionManager / ServerContext / ConnInfo), narrowed to exactly
// what RESP command dispatch needs.
package transport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"spinedb/internal/engine"
)

// ConnInfo is one live connection's bookkeeping — the transport-layer
// counterpart to the teacher's transport.ConnInfo, minus the
// teacher's untyped Metadata map: per spec.md §9.2's "model connection
// state as an explicit value", the engine-level mode lives in State,
// a real *engine.ConnState, not a map entry. Subscriptions and the
// transaction queue live in the engine's pubsub and txn managers,
// keyed by connection ID.
type ConnInfo struct {
	ID       string
	Remote   string
	Protocol string // "tcp" or "ws"
	State    *engine.ConnState
	cancel   func()
	closed   chan struct{}
}

// ConnectionManager tracks every live connection, grounded on the
// teacher's transport.ConnectionManager (map keyed by connection ID,
// with a Count for /stats-style introspection).
type ConnectionManager struct {
	mu    sync.RWMutex
	conns map[string]*ConnInfo
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{conns: make(map[string]*ConnInfo)}
}

func (m *ConnectionManager) Add(c *ConnInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.ID] = c
}

func (m *ConnectionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

var connSeq atomic.Int64

// generateID mirrors the teacher's transport.generateID (a
// nanosecond-timestamp string) with a monotonic counter appended so
// two connections accepted within the same nanosecond never collide.
func generateID() string {
	return fmt.Sprintf("conn-%d-%d", time.Now().UnixNano(), connSeq.Add(1))
}
