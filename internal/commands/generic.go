package commands

import (
	"strconv"
	"time"

	"spinedb/internal/engine"
	"spinedb/internal/resp"
	"spinedb/internal/store"
)

func registerGenericCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "DEL", MinArgs: 1, MaxArgs: -1}, cmdDel)
	r.Register(engine.CommandInfo{Name: "EXISTS", MinArgs: 1, MaxArgs: -1}, cmdExists)
	r.Register(engine.CommandInfo{Name: "TYPE", MinArgs: 1, MaxArgs: 1}, cmdType)
	r.Register(engine.CommandInfo{Name: "EXPIRE", MinArgs: 2, MaxArgs: 2}, cmdExpire)
	r.Register(engine.CommandInfo{Name: "PEXPIRE", MinArgs: 2, MaxArgs: 2}, cmdPExpire)
	r.Register(engine.CommandInfo{Name: "TTL", MinArgs: 1, MaxArgs: 1}, cmdTTL)
	r.Register(engine.CommandInfo{Name: "PTTL", MinArgs: 1, MaxArgs: 1}, cmdPTTL)
	r.Register(engine.CommandInfo{Name: "PERSIST", MinArgs: 1, MaxArgs: 1}, cmdPersist)
}

// cmdDel implements DEL, also dropping any stream bound to the key from
// the stream manager — the value store only ever holds a marker entry
// for stream keys (store.Database.BindStreamSlot).
func cmdDel(ctx *engine.CommandContext) resp.Value {
	var n int64
	for _, key := range ctx.Args {
		typ, exists := ctx.Engine.DB.TypeOf(key)
		if !exists {
			continue
		}
		ctx.Engine.DB.Del(key)
		if typ == store.TypeStream {
			ctx.Engine.Streams.Delete(key)
		}
		n++
	}
	return resp.Int(n)
}

func cmdExists(ctx *engine.CommandContext) resp.Value {
	return resp.Int(int64(ctx.Engine.DB.Exists(ctx.Args...)))
}

func cmdType(ctx *engine.CommandContext) resp.Value {
	typ, ok := ctx.Engine.DB.TypeOf(ctx.Args[0])
	if !ok {
		return resp.SimpleStr("none")
	}
	return resp.SimpleStr(typ.String())
}

func cmdExpire(ctx *engine.CommandContext) resp.Value {
	return doExpire(ctx, time.Second)
}

func cmdPExpire(ctx *engine.CommandContext) resp.Value {
	return doExpire(ctx, time.Millisecond)
}

func doExpire(ctx *engine.CommandContext, unit time.Duration) resp.Value {
	n, err := strconv.ParseInt(ctx.Args[1], 10, 64)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	at := time.Now().Add(time.Duration(n) * unit)
	if ctx.Engine.DB.Expire(ctx.Args[0], at) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdTTL(ctx *engine.CommandContext) resp.Value {
	return ttlResponse(ctx.Engine.DB.TTL(ctx.Args[0]), time.Second)
}

func cmdPTTL(ctx *engine.CommandContext) resp.Value {
	return ttlResponse(ctx.Engine.DB.TTL(ctx.Args[0]), time.Millisecond)
}

func ttlResponse(d time.Duration, unit time.Duration) resp.Value {
	if d == -2*time.Second {
		return resp.Int(-2)
	}
	if d == -1*time.Second {
		return resp.Int(-1)
	}
	if d < 0 {
		d = 0
	}
	return resp.Int(int64(d / unit))
}

func cmdPersist(ctx *engine.CommandContext) resp.Value {
	if ctx.Engine.DB.Persist(ctx.Args[0]) {
		return resp.Int(1)
	}
	return resp.Int(0)
}
