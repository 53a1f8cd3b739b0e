package commands

import (
	"strconv"

	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerListCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "LPUSH", MinArgs: 2, MaxArgs: -1}, cmdLPush)
	r.Register(engine.CommandInfo{Name: "RPUSH", MinArgs: 2, MaxArgs: -1}, cmdRPush)
	r.Register(engine.CommandInfo{Name: "LPOP", MinArgs: 1, MaxArgs: 1}, cmdLPop)
	r.Register(engine.CommandInfo{Name: "RPOP", MinArgs: 1, MaxArgs: 1}, cmdRPop)
	r.Register(engine.CommandInfo{Name: "LLEN", MinArgs: 1, MaxArgs: 1}, cmdLLen)
	r.Register(engine.CommandInfo{Name: "LINDEX", MinArgs: 2, MaxArgs: 2}, cmdLIndex)
	r.Register(engine.CommandInfo{Name: "LSET", MinArgs: 3, MaxArgs: 3}, cmdLSet)
	r.Register(engine.CommandInfo{Name: "LRANGE", MinArgs: 3, MaxArgs: 3}, cmdLRange)
	r.Register(engine.CommandInfo{Name: "LTRIM", MinArgs: 3, MaxArgs: 3}, cmdLTrim)
}

func parseIndexArg(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func cmdLPush(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.LPush(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdRPush(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.RPush(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdLPop(ctx *engine.CommandContext) resp.Value {
	v, ok, err := ctx.Engine.DB.LPop(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(v)
}

func cmdRPop(ctx *engine.CommandContext) resp.Value {
	v, ok, err := ctx.Engine.DB.RPop(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(v)
}

func cmdLLen(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.LLen(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdLIndex(ctx *engine.CommandContext) resp.Value {
	idx, err := parseIndexArg(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	v, ok, err := ctx.Engine.DB.LIndex(ctx.Args[0], idx)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(v)
}

func cmdLSet(ctx *engine.CommandContext) resp.Value {
	idx, err := parseIndexArg(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	if err := ctx.Engine.DB.LSet(ctx.Args[0], idx, ctx.Args[2]); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.SimpleStr("OK")
}

func cmdLRange(ctx *engine.CommandContext) resp.Value {
	start, err := parseIndexArg(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	stop, err := parseIndexArg(ctx.Args[2])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	vals, err := ctx.Engine.DB.LRange(ctx.Args[0], start, stop)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.StrArr(vals)
}

func cmdLTrim(ctx *engine.CommandContext) resp.Value {
	start, err := parseIndexArg(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	stop, err := parseIndexArg(ctx.Args[2])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	if err := ctx.Engine.DB.LTrim(ctx.Args[0], start, stop); err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.SimpleStr("OK")
}
