package commands

import (
	"strconv"
	"strings"
	"time"

	"spinedb/internal/engine"
	"spinedb/internal/resp"
	"spinedb/internal/store"
)

func registerStringCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "SET", MinArgs: 2, MaxArgs: -1}, cmdSet)
	r.Register(engine.CommandInfo{Name: "GET", MinArgs: 1, MaxArgs: 1}, cmdGet)
	r.Register(engine.CommandInfo{Name: "GETSET", MinArgs: 2, MaxArgs: 2}, cmdGetSet)
	r.Register(engine.CommandInfo{Name: "MSET", MinArgs: 2, MaxArgs: -1}, cmdMSet)
	r.Register(engine.CommandInfo{Name: "MGET", MinArgs: 1, MaxArgs: -1}, cmdMGet)
	r.Register(engine.CommandInfo{Name: "STRLEN", MinArgs: 1, MaxArgs: 1}, cmdStrLen)
	r.Register(engine.CommandInfo{Name: "APPEND", MinArgs: 2, MaxArgs: 2}, cmdAppend)
	r.Register(engine.CommandInfo{Name: "INCR", MinArgs: 1, MaxArgs: 1}, cmdIncr)
	r.Register(engine.CommandInfo{Name: "DECR", MinArgs: 1, MaxArgs: 1}, cmdDecr)
	r.Register(engine.CommandInfo{Name: "INCRBY", MinArgs: 2, MaxArgs: 2}, cmdIncrBy)
	r.Register(engine.CommandInfo{Name: "DECRBY", MinArgs: 2, MaxArgs: 2}, cmdDecrBy)
	r.Register(engine.CommandInfo{Name: "INCRBYFLOAT", MinArgs: 2, MaxArgs: 2}, cmdIncrByFloat)
}

func wrongTypeOrErr(err error) resp.Value {
	return resp.Err(err.Error())
}

// cmdSet implements SET key value [NX|XX] [EX s|PX ms] [KEEPTTL],
// grounded on spec.md §4.1's modifier set.
func cmdSet(ctx *engine.CommandContext) resp.Value {
	key, value := ctx.Args[0], ctx.Args[1]
	var opts store.SetOptions
	for i := 2; i < len(ctx.Args); i++ {
		switch strings.ToUpper(ctx.Args[i]) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "KEEPTTL":
			opts.KeepTTL = true
		case "EX":
			i++
			if i >= len(ctx.Args) {
				return resp.Err("ERR syntax error")
			}
			n, err := strconv.ParseInt(ctx.Args[i], 10, 64)
			if err != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			at := time.Now().Add(time.Duration(n) * time.Second)
			opts.ExpiresAt = &at
		case "PX":
			i++
			if i >= len(ctx.Args) {
				return resp.Err("ERR syntax error")
			}
			n, err := strconv.ParseInt(ctx.Args[i], 10, 64)
			if err != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			at := time.Now().Add(time.Duration(n) * time.Millisecond)
			opts.ExpiresAt = &at
		default:
			return resp.Err("ERR syntax error")
		}
	}
	if ctx.Engine.DB.Set(key, value, opts) {
		return resp.SimpleStr("OK")
	}
	return resp.NullBulk()
}

func cmdGet(ctx *engine.CommandContext) resp.Value {
	v, ok, err := ctx.Engine.DB.Get(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(v)
}

func cmdGetSet(ctx *engine.CommandContext) resp.Value {
	old, had, err := ctx.Engine.DB.GetSet(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !had {
		return resp.NullBulk()
	}
	return resp.Str(old)
}

func cmdMSet(ctx *engine.CommandContext) resp.Value {
	if len(ctx.Args)%2 != 0 {
		return resp.Err("ERR wrong number of arguments for 'mset' command")
	}
	pairs := make(map[string]string, len(ctx.Args)/2)
	for i := 0; i < len(ctx.Args); i += 2 {
		pairs[ctx.Args[i]] = ctx.Args[i+1]
	}
	ctx.Engine.DB.MSet(pairs)
	return resp.SimpleStr("OK")
}

func cmdMGet(ctx *engine.CommandContext) resp.Value {
	vals := ctx.Engine.DB.MGet(ctx.Args)
	out := make([]resp.Value, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = resp.NullBulk()
		} else {
			out[i] = resp.Str(*v)
		}
	}
	return resp.ArrOf(out)
}

func cmdStrLen(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.StrLen(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdAppend(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.Append(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdIncr(ctx *engine.CommandContext) resp.Value {
	return incrBy(ctx.Engine.DB, ctx.Args[0], 1)
}

func cmdDecr(ctx *engine.CommandContext) resp.Value {
	return incrBy(ctx.Engine.DB, ctx.Args[0], -1)
}

func cmdIncrBy(ctx *engine.CommandContext) resp.Value {
	n, err := strconv.ParseInt(ctx.Args[1], 10, 64)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return incrBy(ctx.Engine.DB, ctx.Args[0], n)
}

func cmdDecrBy(ctx *engine.CommandContext) resp.Value {
	n, err := strconv.ParseInt(ctx.Args[1], 10, 64)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return incrBy(ctx.Engine.DB, ctx.Args[0], -n)
}

func incrBy(db *store.Database, key string, delta int64) resp.Value {
	n, err := db.IncrBy(key, delta)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdIncrByFloat(ctx *engine.CommandContext) resp.Value {
	delta, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	n, err := ctx.Engine.DB.IncrByFloat(ctx.Args[0], delta)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Str(formatScore(n))
}
