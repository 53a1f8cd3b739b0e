package commands

import (
	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerTransactionCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "MULTI", MinArgs: 0, MaxArgs: 0, ImmediateInQueue: true}, cmdMulti)
	r.Register(engine.CommandInfo{Name: "EXEC", MinArgs: 0, MaxArgs: 0, ImmediateInQueue: true}, cmdExec)
	r.Register(engine.CommandInfo{Name: "DISCARD", MinArgs: 0, MaxArgs: 0, ImmediateInQueue: true}, cmdDiscard)
	r.Register(engine.CommandInfo{Name: "WATCH", MinArgs: 1, MaxArgs: -1, ImmediateInQueue: true}, cmdWatch)
	r.Register(engine.CommandInfo{Name: "UNWATCH", MinArgs: 0, MaxArgs: 0, ImmediateInQueue: true}, cmdUnwatch)
}

// cmdMulti starts a transaction (spec.md §4.4). Nesting is rejected:
// MULTI is ImmediateInQueue so it still reaches this handler while
// already Queued, letting it report the error itself.
func cmdMulti(ctx *engine.CommandContext) resp.Value {
	if ctx.Conn.Mode == engine.ModeQueued {
		return resp.Err("ERR MULTI calls can not be nested")
	}
	ctx.Conn.Mode = engine.ModeQueued
	return resp.SimpleStr("OK")
}

// cmdExec implements EXEC: if any watched key was touched since WATCH,
// abort without running the batch (spec.md §4.4's optimistic
// concurrency check); otherwise run every queued command as one
// uninterrupted block via Dispatcher.ExecuteQueuedLocked, which is
// safe here because Execute already holds engine.mu for the EXEC
// command itself (EXEC is not Blocking).
func cmdExec(ctx *engine.CommandContext) resp.Value {
	if ctx.Conn.Mode != engine.ModeQueued {
		return resp.Err("ERR EXEC without MULTI")
	}
	defer func() {
		ctx.Engine.Txn.EndTransaction(ctx.Conn.ID)
		ctx.Conn.Mode = engine.ModeNormal
	}()

	if ctx.Engine.Txn.IsDirty(ctx.Conn.ID) {
		return resp.NullArray()
	}

	queued := ctx.Engine.Txn.Queue(ctx.Conn.ID)
	results := ctx.Engine.Dispatcher.ExecuteQueuedLocked(ctx.Ctx, ctx.Conn, queued)
	return resp.ArrOf(results)
}

func cmdDiscard(ctx *engine.CommandContext) resp.Value {
	if ctx.Conn.Mode != engine.ModeQueued {
		return resp.Err("ERR DISCARD without MULTI")
	}
	ctx.Engine.Txn.EndTransaction(ctx.Conn.ID)
	ctx.Conn.Mode = engine.ModeNormal
	return resp.SimpleStr("OK")
}

// cmdWatch is only valid outside MULTI (spec.md §4.4); it is
// ImmediateInQueue purely so it can reach this handler and report that
// error itself rather than silently queueing.
func cmdWatch(ctx *engine.CommandContext) resp.Value {
	if ctx.Conn.Mode == engine.ModeQueued {
		return resp.Err("ERR WATCH inside MULTI is not allowed")
	}
	ctx.Engine.Txn.Watch(ctx.Conn.ID, ctx.Args)
	return resp.SimpleStr("OK")
}

func cmdUnwatch(ctx *engine.CommandContext) resp.Value {
	ctx.Engine.Txn.Unwatch(ctx.Conn.ID)
	return resp.SimpleStr("OK")
}
