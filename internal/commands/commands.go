package commands

import "spinedb/internal/engine"

// Register wires every command family into r. Called once at startup
// by cmd/spinedb after constructing the engine.
func Register(r *engine.Registry) {
	registerConnectionCommands(r)
	registerGenericCommands(r)
	registerTransactionCommands(r)
	registerStringCommands(r)
	registerHashCommands(r)
	registerListCommands(r)
	registerSetCommands(r)
	registerZSetCommands(r)
	registerStreamCommands(r)
	registerPubSubCommands(r)
	registerServerCommands(r)
}
