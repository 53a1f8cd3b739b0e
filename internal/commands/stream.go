package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"spinedb/internal/engine"
	"spinedb/internal/resp"
	"spinedb/internal/stream"
)

var errSyntax = errors.New("ERR syntax error")

func registerStreamCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "XADD", MinArgs: 3, MaxArgs: -1}, cmdXAdd)
	r.Register(engine.CommandInfo{Name: "XLEN", MinArgs: 1, MaxArgs: 1}, cmdXLen)
	r.Register(engine.CommandInfo{Name: "XRANGE", MinArgs: 3, MaxArgs: 5}, cmdXRange)
	r.Register(engine.CommandInfo{Name: "XREVRANGE", MinArgs: 3, MaxArgs: 5}, cmdXRevRange)
	r.Register(engine.CommandInfo{Name: "XDEL", MinArgs: 2, MaxArgs: -1}, cmdXDel)
	r.Register(engine.CommandInfo{Name: "XTRIM", MinArgs: 3, MaxArgs: 3}, cmdXTrim)
	r.Register(engine.CommandInfo{Name: "XSETID", MinArgs: 2, MaxArgs: 2}, cmdXSetID)
	r.Register(engine.CommandInfo{Name: "XREAD", MinArgs: 3, MaxArgs: -1, Blocking: true}, cmdXRead)
	r.Register(engine.CommandInfo{Name: "XGROUP", MinArgs: 2, MaxArgs: -1}, cmdXGroup)
	r.Register(engine.CommandInfo{Name: "XREADGROUP", MinArgs: 6, MaxArgs: -1, Blocking: true}, cmdXReadGroup)
	r.Register(engine.CommandInfo{Name: "XACK", MinArgs: 3, MaxArgs: -1}, cmdXAck)
	r.Register(engine.CommandInfo{Name: "XPENDING", MinArgs: 2, MaxArgs: -1}, cmdXPending)
	r.Register(engine.CommandInfo{Name: "XCLAIM", MinArgs: 5, MaxArgs: -1}, cmdXClaim)
	r.Register(engine.CommandInfo{Name: "XINFO", MinArgs: 2, MaxArgs: 3}, cmdXInfo)
}

func streamErr(err error) resp.Value { return resp.Err(err.Error()) }

// entryReply renders one stream.Entry as [id, [field, value, ...]].
func entryReply(e stream.Entry) resp.Value {
	fields := make([]resp.Value, 0, len(e.Fields)*2)
	for _, f := range e.Fields {
		fields = append(fields, resp.Str(f.Name), resp.Str(f.Value))
	}
	return resp.Arr(resp.Str(e.ID.String()), resp.ArrOf(fields))
}

func entriesReply(entries []stream.Entry) resp.Value {
	out := make([]resp.Value, len(entries))
	for i, e := range entries {
		out[i] = entryReply(e)
	}
	return resp.ArrOf(out)
}

// readResultsReply renders [][stream-name, [[id, fields]...]] per
// XREAD/XREADGROUP's reply shape. Every result passed in is rendered,
// including one with no entries; callers decide which streams to pass.
func readResultsReply(results []stream.ReadResult) resp.Value {
	if len(results) == 0 {
		return resp.NullArray()
	}
	out := make([]resp.Value, len(results))
	for i, r := range results {
		out[i] = resp.Arr(resp.Str(r.Key), entriesReply(r.Entries))
	}
	return resp.ArrOf(out)
}

// cmdXAdd implements XADD key id field value [field value ...],
// binding the key into the value store's type registry on first use
// so generic commands (EXISTS, TYPE, DEL, EXPIRE) see it uniformly
// (spec.md §3.1/§4.2).
func cmdXAdd(ctx *engine.CommandContext) resp.Value {
	key, idArg := ctx.Args[0], ctx.Args[1]
	rest := ctx.Args[2:]
	if len(rest)%2 != 0 || len(rest) == 0 {
		return resp.Err("ERR wrong number of arguments for 'xadd' command")
	}
	if err := ctx.Engine.DB.BindStreamSlot(key); err != nil {
		return streamErr(err)
	}

	fields := make([]stream.Field, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		fields = append(fields, stream.Field{Name: rest[i], Value: rest[i+1]})
	}

	var id stream.ID
	var auto bool
	if idArg == "*" {
		auto = true
	} else {
		parsed, err := stream.ParseID(idArg)
		if err != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		id = parsed
	}

	assigned, err := ctx.Engine.Streams.Add(key, id, auto, fields)
	if err != nil {
		return streamErr(err)
	}
	ctx.Engine.DB.TouchStream(key)
	return resp.Str(assigned.String())
}

func cmdXLen(ctx *engine.CommandContext) resp.Value {
	return resp.Int(ctx.Engine.Streams.Len(ctx.Args[0]))
}

func resolveRangeBound(s string, isStart bool) (stream.ID, error) {
	switch s {
	case "-":
		return stream.MinID, nil
	case "+":
		return stream.MaxID, nil
	default:
		return stream.ParseID(s)
	}
}

func cmdXRange(ctx *engine.CommandContext) resp.Value {
	return xrange(ctx, false)
}

func cmdXRevRange(ctx *engine.CommandContext) resp.Value {
	return xrange(ctx, true)
}

func xrange(ctx *engine.CommandContext, reverse bool) resp.Value {
	startArg, endArg := ctx.Args[1], ctx.Args[2]
	if reverse {
		startArg, endArg = ctx.Args[2], ctx.Args[1]
	}
	start, err := resolveRangeBound(startArg, true)
	if err != nil {
		return resp.Err("ERR Invalid stream ID specified as stream command argument")
	}
	end, err := resolveRangeBound(endArg, false)
	if err != nil {
		return resp.Err("ERR Invalid stream ID specified as stream command argument")
	}
	var count int64
	if len(ctx.Args) > 3 {
		if len(ctx.Args) != 5 || !strings.EqualFold(ctx.Args[3], "COUNT") {
			return streamErr(errSyntax)
		}
		n, err := strconv.ParseInt(ctx.Args[4], 10, 64)
		if err != nil {
			return resp.Err("ERR value is not an integer or out of range")
		}
		count = n
	}
	entries := ctx.Engine.Streams.Range(ctx.Args[0], start, end, count, reverse)
	return entriesReply(entries)
}

func cmdXDel(ctx *engine.CommandContext) resp.Value {
	ids := make([]stream.ID, 0, len(ctx.Args)-1)
	for _, a := range ctx.Args[1:] {
		id, err := stream.ParseID(a)
		if err != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		ids = append(ids, id)
	}
	n := ctx.Engine.Streams.Del(ctx.Args[0], ids)
	if n > 0 {
		ctx.Engine.DB.TouchStream(ctx.Args[0])
	}
	return resp.Int(n)
}

func cmdXTrim(ctx *engine.CommandContext) resp.Value {
	strategy := strings.ToUpper(ctx.Args[1])
	var n int64
	switch strategy {
	case "MAXLEN":
		maxLen, err := strconv.ParseInt(ctx.Args[2], 10, 64)
		if err != nil {
			return resp.Err("ERR value is not an integer or out of range")
		}
		n = ctx.Engine.Streams.TrimMaxLen(ctx.Args[0], maxLen)
	case "MINID":
		id, err := stream.ParseID(ctx.Args[2])
		if err != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		n = ctx.Engine.Streams.TrimMinID(ctx.Args[0], id)
	default:
		return resp.Err("ERR syntax error")
	}
	if n > 0 {
		ctx.Engine.DB.TouchStream(ctx.Args[0])
	}
	return resp.Int(n)
}

func cmdXSetID(ctx *engine.CommandContext) resp.Value {
	id, err := stream.ParseID(ctx.Args[1])
	if err != nil {
		return resp.Err("ERR Invalid stream ID specified as stream command argument")
	}
	if bindErr := ctx.Engine.DB.BindStreamSlot(ctx.Args[0]); bindErr != nil {
		return streamErr(bindErr)
	}
	ctx.Engine.Streams.SetID(ctx.Args[0], id)
	ctx.Engine.DB.TouchStream(ctx.Args[0])
	return resp.SimpleStr("OK")
}

// parseXReadArgs splits XREAD/XREADGROUP's trailing "[COUNT n] [BLOCK
// ms] STREAMS keys... ids..." shape, returning count, block timeout
// (nil if absent), and the keys/ids halves of the STREAMS list.
func parseXReadArgs(args []string) (count int64, block *time.Duration, keys, ids []string, err error) {
	i := 0
	for i < len(args) {
		switch strings.ToUpper(args[i]) {
		case "COUNT":
			if i+1 >= len(args) {
				return 0, nil, nil, nil, errSyntax
			}
			n, perr := strconv.ParseInt(args[i+1], 10, 64)
			if perr != nil {
				return 0, nil, nil, nil, errSyntax
			}
			count = n
			i += 2
		case "BLOCK":
			if i+1 >= len(args) {
				return 0, nil, nil, nil, errSyntax
			}
			ms, perr := strconv.ParseInt(args[i+1], 10, 64)
			if perr != nil {
				return 0, nil, nil, nil, errSyntax
			}
			d := time.Duration(ms) * time.Millisecond
			block = &d
			i += 2
		case "STREAMS":
			rest := args[i+1:]
			if len(rest)%2 != 0 || len(rest) == 0 {
				return 0, nil, nil, nil, errSyntax
			}
			half := len(rest) / 2
			return count, block, rest[:half], rest[half:], nil
		default:
			return 0, nil, nil, nil, errSyntax
		}
	}
	return 0, nil, nil, nil, errSyntax
}

func cmdXRead(ctx *engine.CommandContext) resp.Value {
	count, block, keys, idArgs, err := parseXReadArgs(ctx.Args)
	if err != nil {
		return streamErr(err)
	}

	reqs := make([]stream.ReadRequest, len(keys))
	for i, key := range keys {
		if idArgs[i] == "$" {
			last, _ := ctx.Engine.Streams.LastID(key)
			reqs[i] = stream.ReadRequest{Key: key, After: last}
			continue
		}
		id, perr := stream.ParseID(idArgs[i])
		if perr != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		reqs[i] = stream.ReadRequest{Key: key, After: id}
	}

	readCtx := ctx.Ctx
	if block != nil && *block > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx.Ctx, *block)
		defer cancel()
	}
	results := ctx.Engine.Streams.ReadBlocking(readCtx, reqs, count, block)
	return readResultsReply(results)
}

// cmdXGroup implements XGROUP CREATE/DESTROY/SETID/DELCONSUMER.
func cmdXGroup(ctx *engine.CommandContext) resp.Value {
	sub := strings.ToUpper(ctx.Args[0])
	switch sub {
	case "CREATE":
		if len(ctx.Args) < 4 {
			return resp.Err("ERR wrong number of arguments for 'xgroup' command")
		}
		key, group, startArg := ctx.Args[1], ctx.Args[2], ctx.Args[3]
		mkstream := len(ctx.Args) > 4 && strings.EqualFold(ctx.Args[4], "MKSTREAM")
		if mkstream {
			if err := ctx.Engine.DB.BindStreamSlot(key); err != nil {
				return streamErr(err)
			}
		}
		start, err := resolveGroupStart(ctx, key, startArg)
		if err != nil {
			return streamErr(err)
		}
		if err := ctx.Engine.Streams.GroupCreate(key, group, start, mkstream); err != nil {
			return streamErr(err)
		}
		ctx.Engine.DB.TouchStream(key)
		return resp.SimpleStr("OK")
	case "DESTROY":
		key, group := ctx.Args[1], ctx.Args[2]
		if ctx.Engine.Streams.GroupDestroy(key, group) {
			ctx.Engine.DB.TouchStream(key)
			return resp.Int(1)
		}
		return resp.Int(0)
	case "SETID":
		key, group, idArg := ctx.Args[1], ctx.Args[2], ctx.Args[3]
		start, err := resolveGroupStart(ctx, key, idArg)
		if err != nil {
			return streamErr(err)
		}
		if err := ctx.Engine.Streams.GroupSetID(key, group, start); err != nil {
			return streamErr(err)
		}
		ctx.Engine.DB.TouchStream(key)
		return resp.SimpleStr("OK")
	case "DELCONSUMER":
		key, group, consumer := ctx.Args[1], ctx.Args[2], ctx.Args[3]
		n, err := ctx.Engine.Streams.GroupDelConsumer(key, group, consumer)
		if err != nil {
			return streamErr(err)
		}
		if n > 0 {
			ctx.Engine.DB.TouchStream(key)
		}
		return resp.Int(n)
	default:
		return resp.Err("ERR unknown XGROUP subcommand")
	}
}

func resolveGroupStart(ctx *engine.CommandContext, key, arg string) (stream.ID, error) {
	switch arg {
	case "-":
		return stream.MinID, nil
	case "$":
		last, _ := ctx.Engine.Streams.LastID(key)
		return last, nil
	default:
		return stream.ParseID(arg)
	}
}

// cmdXReadGroup implements XREADGROUP GROUP g c [COUNT n] [BLOCK ms]
// STREAMS keys... ids... (NOACK is rejected as a syntax error).
// ">"-mode ids deliver new entries and block if empty; explicit ids
// read the group's pending list and never block (spec.md §4.2).
func cmdXReadGroup(ctx *engine.CommandContext) resp.Value {
	if !strings.EqualFold(ctx.Args[0], "GROUP") {
		return resp.Err("ERR syntax error")
	}
	group, consumer := ctx.Args[1], ctx.Args[2]
	count, block, keys, idArgs, err := parseXReadArgs(ctx.Args[3:])
	if err != nil {
		return streamErr(err)
	}

	allNew := true
	for _, id := range idArgs {
		if id != ">" {
			allNew = false
		}
	}

	if allNew {
		if block != nil {
			readCtx := ctx.Ctx
			if *block > 0 {
				var cancel context.CancelFunc
				readCtx, cancel = context.WithTimeout(ctx.Ctx, *block)
				defer cancel()
			}
			results, gerr := ctx.Engine.Streams.ReadGroupBlocking(readCtx, group, consumer, keys, count, block)
			if gerr != nil {
				return streamErr(gerr)
			}
			for _, r := range results {
				if len(r.Entries) > 0 {
					ctx.Engine.DB.TouchStream(r.Key)
				}
			}
			return readResultsReply(results)
		}
		var out []stream.ReadResult
		for _, key := range keys {
			entries, gerr := ctx.Engine.Streams.ReadGroupNew(key, group, consumer, count)
			if gerr != nil {
				return streamErr(gerr)
			}
			if len(entries) > 0 {
				ctx.Engine.DB.TouchStream(key)
				out = append(out, stream.ReadResult{Key: key, Entries: entries})
			}
		}
		return readResultsReply(out)
	}

	var out []stream.ReadResult
	for i, key := range keys {
		id, perr := stream.ParseID(idArgs[i])
		if perr != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		entries, gerr := ctx.Engine.Streams.ReadGroupPending(key, group, id, count)
		if gerr != nil {
			return streamErr(gerr)
		}
		out = append(out, stream.ReadResult{Key: key, Entries: entries})
	}
	return readResultsReply(out)
}

func cmdXAck(ctx *engine.CommandContext) resp.Value {
	key, group := ctx.Args[0], ctx.Args[1]
	ids := make([]stream.ID, 0, len(ctx.Args)-2)
	for _, a := range ctx.Args[2:] {
		id, err := stream.ParseID(a)
		if err != nil {
			return resp.Err("ERR Invalid stream ID specified as stream command argument")
		}
		ids = append(ids, id)
	}
	n, err := ctx.Engine.Streams.Ack(key, group, ids)
	if err != nil {
		return streamErr(err)
	}
	if n > 0 {
		ctx.Engine.DB.TouchStream(key)
	}
	return resp.Int(n)
}

// cmdXPending implements both XPENDING key group (summary) and
// XPENDING key group start end count [consumer] (extended form).
func cmdXPending(ctx *engine.CommandContext) resp.Value {
	key, group := ctx.Args[0], ctx.Args[1]
	if len(ctx.Args) == 2 {
		summary, err := ctx.Engine.Streams.PendingSummary(key, group)
		if err != nil {
			return streamErr(err)
		}
		if summary.Total == 0 {
			return resp.Arr(resp.Int(0), resp.NullBulk(), resp.NullBulk(), resp.NullArray())
		}
		consumers := make([]resp.Value, 0, len(summary.ByConsumer))
		for name, count := range summary.ByConsumer {
			consumers = append(consumers, resp.Arr(resp.Str(name), resp.Str(itoa(int(count)))))
		}
		return resp.Arr(
			resp.Int(summary.Total),
			resp.Str(summary.Smallest.String()),
			resp.Str(summary.Largest.String()),
			resp.ArrOf(consumers),
		)
	}

	if len(ctx.Args) < 5 {
		return resp.Err("ERR wrong number of arguments for 'xpending' command")
	}
	start, err := resolveRangeBound(ctx.Args[2], true)
	if err != nil {
		return resp.Err("ERR Invalid stream ID specified as stream command argument")
	}
	end, err := resolveRangeBound(ctx.Args[3], false)
	if err != nil {
		return resp.Err("ERR Invalid stream ID specified as stream command argument")
	}
	count, err := strconv.ParseInt(ctx.Args[4], 10, 64)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	var consumer string
	if len(ctx.Args) > 5 {
		consumer = ctx.Args[5]
	}
	details, err := ctx.Engine.Streams.PendingRange(key, group, start, end, count, consumer)
	if err != nil {
		return streamErr(err)
	}
	out := make([]resp.Value, len(details))
	for i, d := range details {
		out[i] = resp.Arr(resp.Str(d.ID.String()), resp.Str(d.Consumer), resp.Int(d.IdleMs), resp.Int(d.DeliveryCount))
	}
	return resp.ArrOf(out)
}

func cmdXClaim(ctx *engine.CommandContext) resp.Value {
	key, group, consumer := ctx.Args[0], ctx.Args[1], ctx.Args[2]
	minIdleMs, err := strconv.ParseInt(ctx.Args[3], 10, 64)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	minIdle := time.Duration(minIdleMs) * time.Millisecond

	var opts stream.ClaimOptions
	var ids []stream.ID
	i := 4
	for i < len(ctx.Args) {
		switch strings.ToUpper(ctx.Args[i]) {
		case "IDLE":
			ms, perr := strconv.ParseInt(ctx.Args[i+1], 10, 64)
			if perr != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			opts.IdleSet = true
			opts.Idle = time.Duration(ms) * time.Millisecond
			i += 2
		case "TIME":
			ms, perr := strconv.ParseInt(ctx.Args[i+1], 10, 64)
			if perr != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			opts.TimeSet = true
			opts.Time = time.UnixMilli(ms)
			i += 2
		case "RETRYCOUNT":
			n, perr := strconv.ParseInt(ctx.Args[i+1], 10, 64)
			if perr != nil {
				return resp.Err("ERR value is not an integer or out of range")
			}
			opts.RetryCountSet = true
			opts.RetryCount = n
			i += 2
		case "FORCE":
			opts.Force = true
			i++
		case "JUSTID":
			opts.JustID = true
			i++
		default:
			id, perr := stream.ParseID(ctx.Args[i])
			if perr != nil {
				return resp.Err("ERR Invalid stream ID specified as stream command argument")
			}
			ids = append(ids, id)
			i++
		}
	}

	claimed, err := ctx.Engine.Streams.Claim(key, group, consumer, minIdle, ids, opts)
	if err != nil {
		return streamErr(err)
	}
	ctx.Engine.DB.TouchStream(key)
	if opts.JustID {
		out := make([]resp.Value, len(claimed))
		for i, e := range claimed {
			out[i] = resp.Str(e.ID.String())
		}
		return resp.ArrOf(out)
	}
	return entriesReply(claimed)
}

func cmdXInfo(ctx *engine.CommandContext) resp.Value {
	sub := strings.ToUpper(ctx.Args[0])
	key := ctx.Args[1]
	switch sub {
	case "STREAM":
		info, ok := ctx.Engine.Streams.Info(key)
		if !ok {
			return resp.Err("ERR no such key")
		}
		fields := []resp.Value{
			resp.Str("length"), resp.Int(info.Length),
			resp.Str("last-generated-id"), resp.Str(info.LastID.String()),
		}
		if info.FirstEntry != nil {
			fields = append(fields, resp.Str("first-entry"), entryReply(*info.FirstEntry))
		}
		if info.LastEntry != nil {
			fields = append(fields, resp.Str("last-entry"), entryReply(*info.LastEntry))
		}
		return resp.ArrOf(fields)
	case "GROUPS":
		groups, ok := ctx.Engine.Streams.InfoGroups(key)
		if !ok {
			return resp.Err("ERR no such key")
		}
		out := make([]resp.Value, len(groups))
		for i, g := range groups {
			out[i] = resp.ArrOf([]resp.Value{
				resp.Str("name"), resp.Str(g.Name),
				resp.Str("consumers"), resp.Int(g.Consumers),
				resp.Str("pending"), resp.Int(g.Pending),
				resp.Str("last-delivered-id"), resp.Str(g.LastDelivered.String()),
			})
		}
		return resp.ArrOf(out)
	case "CONSUMERS":
		if len(ctx.Args) < 3 {
			return resp.Err("ERR wrong number of arguments for 'xinfo' command")
		}
		group := ctx.Args[2]
		consumers, err := ctx.Engine.Streams.InfoConsumers(key, group)
		if err != nil {
			return streamErr(err)
		}
		out := make([]resp.Value, len(consumers))
		for i, c := range consumers {
			out[i] = resp.ArrOf([]resp.Value{
				resp.Str("name"), resp.Str(c.Name),
				resp.Str("pending"), resp.Int(c.Pending),
				resp.Str("idle"), resp.Int(c.IdleMs),
			})
		}
		return resp.ArrOf(out)
	default:
		return resp.Err("ERR unknown XINFO subcommand")
	}
}
