// Package commands implements every command named by spec.md §4.1/§4.2,
// registered into an engine.Registry. One file per command family,
// grounded on the teacher's libspine/engine/commands layout.
package commands

import (
	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerConnectionCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "PING", MinArgs: 0, MaxArgs: 1, AllowedWhenSubscribed: true}, cmdPing)
	r.Register(engine.CommandInfo{Name: "ECHO", MinArgs: 1, MaxArgs: 1}, cmdEcho)
	r.Register(engine.CommandInfo{Name: "QUIT", MinArgs: 0, MaxArgs: 0, AllowedWhenSubscribed: true}, cmdQuit)
}

// cmdPing implements PING, returning +PONG with no argument or the
// argument as a bulk string (spec.md §4.3).
func cmdPing(ctx *engine.CommandContext) resp.Value {
	if len(ctx.Args) == 0 {
		return resp.SimpleStr("PONG")
	}
	return resp.Str(ctx.Args[0])
}

func cmdEcho(ctx *engine.CommandContext) resp.Value {
	return resp.Str(ctx.Args[0])
}

func cmdQuit(ctx *engine.CommandContext) resp.Value {
	return resp.SimpleStr("OK")
}
