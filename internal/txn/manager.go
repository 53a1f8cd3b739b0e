// Package txn implements the transaction manager of spec.md §4.4:
// per-connection command queueing plus a process-wide watched-keys
// reverse index giving WATCH/MULTI/EXEC their optimistic-concurrency
// semantics.
package txn

import "sync"

// QueuedCommand is one command buffered between MULTI and EXEC.
type QueuedCommand struct {
	Name string
	Args []string
}

// Transaction is the per-connection transaction state. EXEC (whether
// it runs the queue or aborts on a dirty watch) and DISCARD both end
// the transaction through EndTransaction, which resets Queue,
// WatchedKeys and Dirty; UNWATCH resets WatchedKeys and Dirty only.
type Transaction struct {
	Queue       []QueuedCommand
	WatchedKeys map[string]struct{}
	Dirty       bool
}

func newTransaction() *Transaction {
	return &Transaction{WatchedKeys: make(map[string]struct{})}
}

func (t *Transaction) clearQueue() {
	t.Queue = nil
}

func (t *Transaction) clearWatches() {
	t.WatchedKeys = make(map[string]struct{})
	t.Dirty = false
}

// Manager is the process-wide transaction manager, grounded on
// other_examples' GoRedis TransactionManager: a map of per-connection
// Transaction plus a key→watchers reverse index so a write touches
// only the connections actually watching it, not every open
// transaction.
type Manager struct {
	mu           sync.Mutex
	transactions map[string]*Transaction
	keyWatchers  map[string]map[string]struct{}
}

func NewManager() *Manager {
	return &Manager{
		transactions: make(map[string]*Transaction),
		keyWatchers:  make(map[string]map[string]struct{}),
	}
}

func (m *Manager) get(connID string) *Transaction {
	tx, ok := m.transactions[connID]
	if !ok {
		tx = newTransaction()
		m.transactions[connID] = tx
	}
	return tx
}

// Enqueue appends a validated command to connID's queue.
func (m *Manager) Enqueue(connID string, cmd QueuedCommand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.get(connID)
	tx.Queue = append(tx.Queue, cmd)
}

// Queue returns connID's buffered commands.
func (m *Manager) Queue(connID string) []QueuedCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QueuedCommand{}, m.get(connID).Queue...)
}

// Watch records each key's watcher membership for connID. WATCH never
// resets an already-dirty transaction; spec.md only forbids WATCH
// while Queued, which the WATCH command handler checks before calling this.
func (m *Manager) Watch(connID string, keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := m.get(connID)
	for _, key := range keys {
		tx.WatchedKeys[key] = struct{}{}
		watchers, ok := m.keyWatchers[key]
		if !ok {
			watchers = make(map[string]struct{})
			m.keyWatchers[key] = watchers
		}
		watchers[connID] = struct{}{}
	}
}

// Unwatch clears connID's watches and dirty flag (UNWATCH, and the
// implicit unwatch after EXEC/DISCARD).
func (m *Manager) Unwatch(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unwatchLocked(connID)
}

func (m *Manager) unwatchLocked(connID string) {
	tx, ok := m.transactions[connID]
	if !ok {
		return
	}
	for key := range tx.WatchedKeys {
		if watchers, ok := m.keyWatchers[key]; ok {
			delete(watchers, connID)
			if len(watchers) == 0 {
				delete(m.keyWatchers, key)
			}
		}
	}
	tx.clearWatches()
}

// IsDirty reports whether any key connID watches has been mutated
// since the WATCH.
func (m *Manager) IsDirty(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(connID).Dirty
}

// EndTransaction clears connID's queue and watches, called after
// EXEC/DISCARD (successful or aborted) per spec.md §4.4.
func (m *Manager) EndTransaction(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(connID).clearQueue()
	m.unwatchLocked(connID)
}

// RemoveConnection drops all transaction state for a closed
// connection (spec.md §4.8 "Terminal").
func (m *Manager) RemoveConnection(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.transactions[connID]; ok {
		for key := range tx.WatchedKeys {
			if watchers, ok := m.keyWatchers[key]; ok {
				delete(watchers, connID)
				if len(watchers) == 0 {
					delete(m.keyWatchers, key)
				}
			}
		}
	}
	delete(m.transactions, connID)
}

// OnMutate implements store.MutationListener: every connection
// watching key is marked dirty. Grounded on GoRedis's TouchKey — the
// "key optimization" of doing this work at write time so EXEC is an
// O(1) flag check rather than a version re-scan.
func (m *Manager) OnMutate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	watchers, ok := m.keyWatchers[key]
	if !ok {
		return
	}
	for connID := range watchers {
		if tx, ok := m.transactions[connID]; ok {
			tx.Dirty = true
		}
	}
}
