package engine

import "spinedb/internal/pubsub"

// Mode is the connection's dispatch gate, spec.md §4.8: Normal,
// Queued (inside MULTI), and Subscribed are mutually exclusive.
type Mode int

const (
	ModeNormal Mode = iota
	ModeQueued
	ModeSubscribed
)

// ConnState is the per-connection metadata the dispatcher gates on —
// passed explicitly into Dispatcher.Execute rather than held as
// ambient connection state, so the same Engine can serve many
// connections without the network layer reaching into engine
// internals. The teacher's equivalent (transport.ConnInfo) mixes
// transport bookkeeping (addr, last-active) with engine-only state
// (pubsub mode flags stashed in a generic Metadata map); this type
// narrows that down to exactly what the dispatcher needs.
type ConnState struct {
	ID   string
	Mode Mode
	Sink pubsub.Sink
}

func NewConnState(id string, sink pubsub.Sink) *ConnState {
	return &ConnState{ID: id, Mode: ModeNormal, Sink: sink}
}
