// Package engine wires the value store, stream subsystem, pub/sub
// manager, and transaction manager into one process-wide Engine and
// implements the command dispatcher's connection-mode state machine
// (spec.md §4.3, §4.8).
package engine

import (
	"sync"

	"spinedb/internal/pubsub"
	"spinedb/internal/store"
	"spinedb/internal/stream"
	"spinedb/internal/txn"
)

// Engine composes the process-wide singletons as explicit fields
// rather than package-level globals (a deliberate redesign from the
// teacher, whose engine.Engine reaches for package-scope storage
// indirectly through a registry of numbered databases) — this is
// what lets tests spin up isolated engines instead of sharing global
// state across test cases.
type Engine struct {
	DB         *store.Database
	Streams    *stream.Manager
	PubSub     *pubsub.Manager
	Txn        *txn.Manager
	Registry   *Registry
	Dispatcher *Dispatcher

	// mu is the coarse store-wide mutex spec.md §5 explicitly allows
	// ("Implementations may use a coarse store-wide mutex... they must
	// not expose partial state across commands"). Every non-blocking
	// command executes while holding it, which is also what lets EXEC
	// run its whole queued batch as one uninterrupted block. XREAD
	// BLOCK / XREADGROUP BLOCK are the sole exception (spec.md §5
	// "Suspension points"): they never acquire mu, relying instead on
	// the stream subsystem's own per-stream locking, so a suspended
	// reader never holds the keyspace lock while parked.
	mu sync.Mutex
}

func NewEngine() *Engine {
	e := &Engine{
		DB:       store.NewDatabase(),
		Streams:  stream.NewManager(),
		PubSub:   pubsub.NewManager(),
		Txn:      txn.NewManager(),
		Registry: NewRegistry(),
	}
	e.DB.SetMutationListener(e.Txn)
	e.Dispatcher = NewDispatcher(e)
	return e
}
