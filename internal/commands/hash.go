package commands

import (
	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerHashCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "HSET", MinArgs: 3, MaxArgs: -1}, cmdHSet)
	r.Register(engine.CommandInfo{Name: "HGET", MinArgs: 2, MaxArgs: 2}, cmdHGet)
	r.Register(engine.CommandInfo{Name: "HGETALL", MinArgs: 1, MaxArgs: 1}, cmdHGetAll)
	r.Register(engine.CommandInfo{Name: "HDEL", MinArgs: 2, MaxArgs: -1}, cmdHDel)
	r.Register(engine.CommandInfo{Name: "HEXISTS", MinArgs: 2, MaxArgs: 2}, cmdHExists)
	r.Register(engine.CommandInfo{Name: "HLEN", MinArgs: 1, MaxArgs: 1}, cmdHLen)
	r.Register(engine.CommandInfo{Name: "HKEYS", MinArgs: 1, MaxArgs: 1}, cmdHKeys)
	r.Register(engine.CommandInfo{Name: "HVALS", MinArgs: 1, MaxArgs: 1}, cmdHVals)
}

func cmdHSet(ctx *engine.CommandContext) resp.Value {
	if (len(ctx.Args)-1)%2 != 0 {
		return resp.Err("ERR wrong number of arguments for 'hset' command")
	}
	pairs := make([][2]string, 0, (len(ctx.Args)-1)/2)
	for i := 1; i < len(ctx.Args); i += 2 {
		pairs = append(pairs, [2]string{ctx.Args[i], ctx.Args[i+1]})
	}
	n, err := ctx.Engine.DB.HSet(ctx.Args[0], pairs)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdHGet(ctx *engine.CommandContext) resp.Value {
	v, ok, err := ctx.Engine.DB.HGet(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(v)
}

func cmdHGetAll(ctx *engine.CommandContext) resp.Value {
	pairs, err := ctx.Engine.DB.HGetAll(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	out := make([]resp.Value, 0, len(pairs)*2)
	for _, p := range pairs {
		out = append(out, resp.Str(p[0]), resp.Str(p[1]))
	}
	return resp.ArrOf(out)
}

func cmdHDel(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.HDel(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdHExists(ctx *engine.CommandContext) resp.Value {
	ok, err := ctx.Engine.DB.HExists(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdHLen(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.HLen(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdHKeys(ctx *engine.CommandContext) resp.Value {
	keys, err := ctx.Engine.DB.HKeys(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.StrArr(keys)
}

func cmdHVals(ctx *engine.CommandContext) resp.Value {
	vals, err := ctx.Engine.DB.HVals(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.StrArr(vals)
}
