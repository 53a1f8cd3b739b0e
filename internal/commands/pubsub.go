package commands

import (
	"spinedb/internal/engine"
	"spinedb/internal/resp"
)

func registerPubSubCommands(r *engine.Registry) {
	r.Register(engine.CommandInfo{Name: "SUBSCRIBE", MinArgs: 1, MaxArgs: -1, AllowedWhenSubscribed: true}, cmdSubscribe)
	r.Register(engine.CommandInfo{Name: "UNSUBSCRIBE", MinArgs: 0, MaxArgs: -1, AllowedWhenSubscribed: true}, cmdUnsubscribe)
	r.Register(engine.CommandInfo{Name: "PSUBSCRIBE", MinArgs: 1, MaxArgs: -1, AllowedWhenSubscribed: true}, cmdPSubscribe)
	r.Register(engine.CommandInfo{Name: "PUNSUBSCRIBE", MinArgs: 0, MaxArgs: -1, AllowedWhenSubscribed: true}, cmdPUnsubscribe)
	r.Register(engine.CommandInfo{Name: "PUBLISH", MinArgs: 2, MaxArgs: 2}, cmdPublish)
}

// cmdSubscribe implements SUBSCRIBE, sending one "subscribe" ack frame
// per channel straight to the connection's sink (spec.md §4.5) rather
// than through the normal single reply value — a Subscribed
// connection's replies are a stream of pushed frames, not one
// request/response pair.
func cmdSubscribe(ctx *engine.CommandContext) resp.Value {
	for _, ch := range ctx.Args {
		total := ctx.Engine.PubSub.Subscribe(ctx.Conn.ID, ctx.Conn.Sink, ch)
		ctx.Conn.Sink.Send("subscribe", ch, itoa(total))
	}
	ctx.Conn.Mode = engine.ModeSubscribed
	return resp.None()
}

func cmdUnsubscribe(ctx *engine.CommandContext) resp.Value {
	channels := ctx.Args
	if len(channels) == 0 {
		channels = ctx.Engine.PubSub.Channels(ctx.Conn.ID)
	}
	var remaining int
	for _, ch := range channels {
		remaining = ctx.Engine.PubSub.Unsubscribe(ctx.Conn.ID, ch)
		ctx.Conn.Sink.Send("unsubscribe", ch, itoa(remaining))
	}
	if len(channels) == 0 {
		ctx.Conn.Sink.Send("unsubscribe", "", itoa(0))
	}
	exitSubscribedIfIdle(ctx)
	return resp.None()
}

func cmdPSubscribe(ctx *engine.CommandContext) resp.Value {
	for _, p := range ctx.Args {
		total := ctx.Engine.PubSub.PSubscribe(ctx.Conn.ID, ctx.Conn.Sink, p)
		ctx.Conn.Sink.Send("psubscribe", p, itoa(total))
	}
	ctx.Conn.Mode = engine.ModeSubscribed
	return resp.None()
}

func cmdPUnsubscribe(ctx *engine.CommandContext) resp.Value {
	patterns := ctx.Args
	if len(patterns) == 0 {
		patterns = ctx.Engine.PubSub.Patterns(ctx.Conn.ID)
	}
	for _, p := range patterns {
		remaining := ctx.Engine.PubSub.PUnsubscribe(ctx.Conn.ID, p)
		ctx.Conn.Sink.Send("punsubscribe", p, itoa(remaining))
	}
	exitSubscribedIfIdle(ctx)
	return resp.None()
}

// exitSubscribedIfIdle drops back to Normal mode once a connection
// holds zero channel and pattern subscriptions (spec.md §4.8).
func exitSubscribedIfIdle(ctx *engine.CommandContext) {
	if len(ctx.Engine.PubSub.Channels(ctx.Conn.ID))+len(ctx.Engine.PubSub.Patterns(ctx.Conn.ID)) == 0 {
		ctx.Conn.Mode = engine.ModeNormal
	}
}

func cmdPublish(ctx *engine.CommandContext) resp.Value {
	n := ctx.Engine.PubSub.Publish(ctx.Args[0], ctx.Args[1])
	return resp.Int(int64(n))
}
