package commands

import (
	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerSetCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "SADD", MinArgs: 2, MaxArgs: -1}, cmdSAdd)
	r.Register(engine.CommandInfo{Name: "SREM", MinArgs: 2, MaxArgs: -1}, cmdSRem)
	r.Register(engine.CommandInfo{Name: "SISMEMBER", MinArgs: 2, MaxArgs: 2}, cmdSIsMember)
	r.Register(engine.CommandInfo{Name: "SMEMBERS", MinArgs: 1, MaxArgs: 1}, cmdSMembers)
	r.Register(engine.CommandInfo{Name: "SCARD", MinArgs: 1, MaxArgs: 1}, cmdSCard)
}

func cmdSAdd(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.SAdd(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdSRem(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.SRem(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdSIsMember(ctx *engine.CommandContext) resp.Value {
	ok, err := ctx.Engine.DB.SIsMember(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdSMembers(ctx *engine.CommandContext) resp.Value {
	members, err := ctx.Engine.DB.SMembers(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.StrArr(members)
}

func cmdSCard(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.SCard(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}
