package commands

import (
	"strconv"
	"strings"

	"spinedb/internal/engine"
	"spinedb/internal/resp"
	"spinedb/internal/store"
)

func registerZSetCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "ZADD", MinArgs: 3, MaxArgs: -1}, cmdZAdd)
	r.Register(engine.CommandInfo{Name: "ZSCORE", MinArgs: 2, MaxArgs: 2}, cmdZScore)
	r.Register(engine.CommandInfo{Name: "ZINCRBY", MinArgs: 3, MaxArgs: 3}, cmdZIncrBy)
	r.Register(engine.CommandInfo{Name: "ZREM", MinArgs: 2, MaxArgs: -1}, cmdZRem)
	r.Register(engine.CommandInfo{Name: "ZCARD", MinArgs: 1, MaxArgs: 1}, cmdZCard)
	r.Register(engine.CommandInfo{Name: "ZRANGE", MinArgs: 3, MaxArgs: 4}, cmdZRange)
	r.Register(engine.CommandInfo{Name: "ZRANGEBYSCORE", MinArgs: 3, MaxArgs: 4}, cmdZRangeByScore)
	r.Register(engine.CommandInfo{Name: "ZCOUNT", MinArgs: 3, MaxArgs: 3}, cmdZCount)
	r.Register(engine.CommandInfo{Name: "ZREMRANGEBYSCORE", MinArgs: 3, MaxArgs: 3}, cmdZRemRangeByScore)
	r.Register(engine.CommandInfo{Name: "ZRANK", MinArgs: 2, MaxArgs: 2}, cmdZRank)
	r.Register(engine.CommandInfo{Name: "ZREVRANK", MinArgs: 2, MaxArgs: 2}, cmdZRevRank)
}

func cmdZAdd(ctx *engine.CommandContext) resp.Value {
	if (len(ctx.Args)-1)%2 != 0 {
		return resp.Err("ERR wrong number of arguments for 'zadd' command")
	}
	pairs := make([]struct {
		Member string
		Score  float64
	}, 0, (len(ctx.Args)-1)/2)
	for i := 1; i < len(ctx.Args); i += 2 {
		score, err := strconv.ParseFloat(ctx.Args[i], 64)
		if err != nil {
			return resp.Err("ERR value is not a valid float")
		}
		pairs = append(pairs, struct {
			Member string
			Score  float64
		}{Member: ctx.Args[i+1], Score: score})
	}
	n, err := ctx.Engine.DB.ZAdd(ctx.Args[0], pairs)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdZScore(ctx *engine.CommandContext) resp.Value {
	score, ok, err := ctx.Engine.DB.ZScore(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Str(formatScore(score))
}

func cmdZIncrBy(ctx *engine.CommandContext) resp.Value {
	inc, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil {
		return resp.Err("ERR value is not a valid float")
	}
	next, err := ctx.Engine.DB.ZIncrBy(ctx.Args[0], ctx.Args[2], inc)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Str(formatScore(next))
}

func cmdZRem(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.ZRem(ctx.Args[0], ctx.Args[1:])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdZCard(ctx *engine.CommandContext) resp.Value {
	n, err := ctx.Engine.DB.ZCard(ctx.Args[0])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

// withScores renders trailing "WITHSCORES" args and the shape of a
// member/score range reply (spec.md §4.1).
func withScores(args []string) bool {
	if len(args) == 0 {
		return false
	}
	return strings.EqualFold(args[len(args)-1], "WITHSCORES")
}

func zMembersReply(members []store.ZMember, scores bool) resp.Value {
	out := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		out = append(out, resp.Str(m.Member))
		if scores {
			out = append(out, resp.Str(formatScore(m.Score)))
		}
	}
	return resp.ArrOf(out)
}

func cmdZRange(ctx *engine.CommandContext) resp.Value {
	start, err := parseIndexArg(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	stop, err := parseIndexArg(ctx.Args[2])
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	scores := withScores(ctx.Args[3:])
	members, err := ctx.Engine.DB.ZRange(ctx.Args[0], start, stop)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return zMembersReply(members, scores)
}

func cmdZRangeByScore(ctx *engine.CommandContext) resp.Value {
	min, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	max, err := strconv.ParseFloat(ctx.Args[2], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	scores := withScores(ctx.Args[3:])
	members, err := ctx.Engine.DB.ZRangeByScore(ctx.Args[0], min, max)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return zMembersReply(members, scores)
}

func cmdZCount(ctx *engine.CommandContext) resp.Value {
	min, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	max, err := strconv.ParseFloat(ctx.Args[2], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	n, err := ctx.Engine.DB.ZCount(ctx.Args[0], min, max)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdZRemRangeByScore(ctx *engine.CommandContext) resp.Value {
	min, err := strconv.ParseFloat(ctx.Args[1], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	max, err := strconv.ParseFloat(ctx.Args[2], 64)
	if err != nil {
		return resp.Err("ERR min or max is not a float")
	}
	n, err := ctx.Engine.DB.ZRemRangeByScore(ctx.Args[0], min, max)
	if err != nil {
		return wrongTypeOrErr(err)
	}
	return resp.Int(n)
}

func cmdZRank(ctx *engine.CommandContext) resp.Value {
	rank, ok, err := ctx.Engine.DB.ZRank(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Int(rank)
}

func cmdZRevRank(ctx *engine.CommandContext) resp.Value {
	rank, ok, err := ctx.Engine.DB.ZRevRank(ctx.Args[0], ctx.Args[1])
	if err != nil {
		return wrongTypeOrErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Int(rank)
}
