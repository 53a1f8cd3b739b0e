// Package store implements the process-wide typed keyspace: the
// value store component of spec.md §4.1. A key is bound to at most
// one of six typed values, carries an optional absolute expiration,
// and a monotonically increasing mutation version. Every mutation is
// also reported to the MutationListener, which is what WATCH uses.
package store

import (
	"sync"
	"time"
)

// Type identifies which of the six value kinds a key is bound to.
type Type int

const (
	TypeString Type = iota
	TypeHash
	TypeList
	TypeSet
	TypeZSet
	TypeStream
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	case TypeStream:
		return "stream"
	default:
		return "none"
	}
}

// entry is the internal representation of one key's binding.
type entry struct {
	typ       Type
	data      interface{}
	expiresAt *time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return e.expiresAt != nil && now.After(*e.expiresAt)
}

// MutationListener is notified whenever a key is written, deleted, or
// expired. The transaction manager implements this to mark watching
// connections dirty (spec.md §4.4) without Database importing txn.
type MutationListener interface {
	OnMutate(key string)
}

// Database is the single process-wide keyspace. spec.md §3.1 scopes
// this system to one shared keyspace, so — unlike the teacher's
// Engine, which indexes N numbered databases — there is exactly one.
type Database struct {
	mu       sync.RWMutex
	data     map[string]*entry
	versions map[string]uint64
	listener MutationListener
}

func NewDatabase() *Database {
	return &Database{
		data:     make(map[string]*entry),
		versions: make(map[string]uint64),
	}
}

// SetMutationListener wires the transaction manager in. Call once at
// startup; not safe to change concurrently with traffic.
func (db *Database) SetMutationListener(l MutationListener) {
	db.listener = l
}

// bumpVersion must be called with db.mu held every time key's bound
// value changes, is deleted, or expires. It notifies the mutation
// listener synchronously and still under db.mu: spec.md §5 treats
// each command as atomic with respect to the keyspace, so a watching
// connection's dirty flag must already be set by the time the
// mutator's caller (and any concurrent EXEC) observes the write as
// complete — an async notification would let EXEC race ahead of the
// dirty-flag update it depends on. The listener (txn.Manager) only
// ever does O(watchers-of-this-key) map work here, so holding the
// lock through it is cheap.
func (db *Database) bumpVersion(key string) {
	db.versions[key]++
	if db.listener != nil {
		db.listener.OnMutate(key)
	}
}

// Version returns the current mutation version for key. WATCH and
// EXEC do not read it; they rely on the dirty flags that the
// MutationListener sets.
func (db *Database) Version(key string) uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.versions[key]
}

// getLocked returns the live entry for key, lazily deleting it first
// if its expiration has passed. Caller must hold db.mu for writing if
// expiry removal is possible; to keep the locking simple every caller
// takes the write lock for any operation that might observe
// expiration, per spec.md §3.1's lazy-expiration rule.
func (db *Database) getLocked(key string) (*entry, bool) {
	e, ok := db.data[key]
	if !ok {
		return nil, false
	}
	if e.isExpired(time.Now()) {
		delete(db.data, key)
		db.bumpVersion(key)
		return nil, false
	}
	return e, true
}

// removeIfEmpty deletes key and clears its expiration when the
// container bound to it has become empty, per spec.md §3.1's
// empty-container collapse rule. Caller holds db.mu (write).
func (db *Database) removeIfEmpty(key string, empty bool) {
	if empty {
		delete(db.data, key)
	}
}

// --- Common, type-agnostic operations (spec.md §4.1 "Key-level") ---

func (db *Database) Exists(keys ...string) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for _, k := range keys {
		if _, ok := db.getLocked(k); ok {
			count++
		}
	}
	return count
}

func (db *Database) Del(keys ...string) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := db.getLocked(k); ok {
			delete(db.data, k)
			db.bumpVersion(k)
			n++
		}
	}
	return n
}

// TypeOf returns the type bound to key and whether key exists.
func (db *Database) TypeOf(key string) (Type, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.getLocked(key)
	if !ok {
		return 0, false
	}
	return e.typ, true
}

// Expire sets an absolute deadline on an existing key. Returns false
// (and does not create state) if the key is absent, per spec.md §3.1.
func (db *Database) Expire(key string, at time.Time) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.getLocked(key)
	if !ok {
		return false
	}
	e.expiresAt = &at
	db.bumpVersion(key)
	return true
}

func (db *Database) Persist(key string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.getLocked(key)
	if !ok || e.expiresAt == nil {
		return false
	}
	e.expiresAt = nil
	db.bumpVersion(key)
	return true
}

// TTL returns the remaining lifetime of key: -2 if absent, -1 if no
// expiration, else the duration until expiry (may be negative for an
// instant about to be swept).
func (db *Database) TTL(key string) time.Duration {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.getLocked(key)
	if !ok {
		return -2 * time.Second
	}
	if e.expiresAt == nil {
		return -1 * time.Second
	}
	return time.Until(*e.expiresAt)
}

// Sweep removes every key whose expiration has passed. Invoked
// periodically by internal/sweeper and used directly by tests.
// Returns the number of keys removed.
func (db *Database) Sweep(now time.Time) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int
	for k, e := range db.data {
		if e.isExpired(now) {
			delete(db.data, k)
			db.bumpVersion(k)
			n++
		}
	}
	return n
}

// BindStreamSlot registers key as bound to a stream for the purposes
// of the generic key-level commands (EXISTS, TYPE, DEL, EXPIRE), which
// otherwise know nothing about internal/stream.Manager. It is a
// marker entry with no data of its own — the actual stream lives in
// the stream manager — created on first XADD/XGROUP CREATE MKSTREAM
// and left alone if key is already a stream. Returns ErrWrongType if
// key is bound to a different type.
func (db *Database) BindStreamSlot(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.getLocked(key)
	if !ok {
		db.data[key] = &entry{typ: TypeStream}
		db.bumpVersion(key)
		return nil
	}
	if e.typ != TypeStream {
		return ErrWrongType
	}
	return nil
}

// TouchStream bumps key's mutation version without otherwise touching
// the value store. Every stream mutator (XADD, XDEL, XTRIM, XSETID,
// XGROUP*, XACK, XCLAIM — PEL changes included) calls this so WATCH
// sees stream writes the same as any other type's (spec.md §4.4: "any
// mutator, any type ... PEL change included").
func (db *Database) TouchStream(key string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.bumpVersion(key)
}

// Keys returns a snapshot of all live (non-expired) keys. Used by
// DBSIZE/KEYS-style introspection and tests; not itself a hot path.
func (db *Database) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now()
	keys := make([]string, 0, len(db.data))
	for k, e := range db.data {
		if !e.isExpired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}
