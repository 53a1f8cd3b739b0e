package engine

import (
	"context"
	"fmt"
	"strings"

	"spinedb/internal/resp"
	"spinedb/internal/txn"
)

// pubsubFamily are the commands that would cross a connection into
// Subscribed mode. spec.md §4.8 requires Queued and Subscribed stay
// mutually exclusive: one of these arriving while Queued rejects with
// an error instead of being enqueued or changing state.
var pubsubFamily = map[string]bool{
	"SUBSCRIBE": true, "UNSUBSCRIBE": true,
	"PSUBSCRIBE": true, "PUNSUBSCRIBE": true,
}

// Dispatcher implements spec.md §4.3's four-step execution procedure.
type Dispatcher struct {
	engine *Engine
}

func NewDispatcher(e *Engine) *Dispatcher {
	return &Dispatcher{engine: e}
}

func wrongArgsErr(cmd string) resp.Value {
	return resp.Err(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(cmd)))
}

// Execute runs one decoded command against conn's current mode,
// implementing spec.md's execute(request, connection_state) -> response
// entry point (§6.2).
func (d *Dispatcher) Execute(ctx context.Context, conn *ConnState, cmd resp.Command) resp.Value {
	name := strings.ToUpper(cmd.Name)

	reg, known := d.engine.Registry.lookup(name)

	// Step 2: Subscribed-mode gating, driven by each command's own
	// AllowedWhenSubscribed metadata rather than a second hand-kept list.
	if conn.Mode == ModeSubscribed && !(known && reg.info.AllowedWhenSubscribed) {
		return resp.Err(fmt.Sprintf("ERR Can't execute '%s' in this context", strings.ToLower(cmd.Name)))
	}

	if !known {
		return resp.Err(fmt.Sprintf("ERR unknown command '%s'", cmd.Name))
	}

	// Step 1: argument-count validation (applies regardless of mode —
	// a syntactically invalid command is rejected before it can even
	// be queued, per §4.3 step 3's "syntactically validated").
	if !validArgCount(reg.info, len(cmd.Args)) {
		return wrongArgsErr(cmd.Name)
	}

	// Step 3: Queued-mode gating. Pub/sub commands cross into Subscribed
	// mode, which §4.8 forbids while Queued — reject without enqueuing
	// or touching conn.Mode.
	if conn.Mode == ModeQueued && pubsubFamily[name] {
		return resp.Err(fmt.Sprintf("ERR %s is not allowed in transactions", strings.ToUpper(cmd.Name)))
	}
	if conn.Mode == ModeQueued && !reg.info.ImmediateInQueue {
		d.engine.Txn.Enqueue(conn.ID, txn.QueuedCommand{Name: cmd.Name, Args: cmd.Args})
		return resp.SimpleStr("QUEUED")
	}

	// Step 4: execute. Blocking commands manage their own suspension
	// and never run under the coarse engine lock (spec.md §5).
	cmdCtx := &CommandContext{Engine: d.engine, Conn: conn, Ctx: ctx, Args: cmd.Args}
	if reg.info.Blocking {
		return reg.handler(cmdCtx)
	}
	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	return reg.handler(cmdCtx)
}

// ExecuteQueuedLocked runs each queued command's handler directly,
// skipping re-validation (already checked at queue time) and mode
// gating (queued commands were never SUBSCRIBE/MULTI/etc.). Callers
// must already hold d.engine.mu — it is only ever invoked from within
// the EXEC handler, itself called from Execute while already holding
// the lock, so the whole batch runs as one uninterrupted block
// (spec.md §4.4, §5).
func (d *Dispatcher) ExecuteQueuedLocked(ctx context.Context, conn *ConnState, queued []txn.QueuedCommand) []resp.Value {
	out := make([]resp.Value, 0, len(queued))
	for _, q := range queued {
		reg, known := d.engine.Registry.lookup(strings.ToUpper(q.Name))
		if !known {
			out = append(out, resp.Err(fmt.Sprintf("ERR unknown command '%s'", q.Name)))
			continue
		}
		cctx := ctx
		if reg.info.Blocking {
			// A blocking read inside EXEC must not park while d.engine.mu
			// is held: an already-cancelled context makes it evaluate once
			// and return without suspending.
			c, cancel := context.WithCancel(ctx)
			cancel()
			cctx = c
		}
		out = append(out, reg.handler(&CommandContext{Engine: d.engine, Conn: conn, Ctx: cctx, Args: q.Args}))
	}
	return out
}

func validArgCount(info CommandInfo, n int) bool {
	if n < info.MinArgs {
		return false
	}
	if info.MaxArgs >= 0 && n > info.MaxArgs {
		return false
	}
	return true
}
