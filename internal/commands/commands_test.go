package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinedb/internal/engine"
	"spinedb/internal/pubsub"
	"spinedb/internal/resp"
)

type fakeSink struct {
	frames [][]string
}

func (s *fakeSink) Send(fields ...string) error {
	s.frames = append(s.frames, fields)
	return nil
}

var _ pubsub.Sink = (*fakeSink)(nil)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.NewEngine()
	Register(e.Registry)
	return e
}

func exec(t *testing.T, e *engine.Engine, conn *engine.ConnState, name string, args ...string) resp.Value {
	t.Helper()
	return e.Dispatcher.Execute(context.Background(), conn, resp.Command{Name: name, Args: args})
}

func TestStringSetGet(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	result := exec(t, e, conn, "SET", "foo", "bar")
	require.Equal(t, resp.TypeSimpleString, result.Type)
	assert.Equal(t, "OK", result.Str)

	result = exec(t, e, conn, "GET", "foo")
	require.Equal(t, resp.TypeBulkString, result.Type)
	assert.Equal(t, "bar", result.Str)

	result = exec(t, e, conn, "GET", "missing")
	assert.Equal(t, resp.TypeNullBulk, result.Type)
}

func TestIncrDecr(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	result := exec(t, e, conn, "INCR", "counter")
	require.Equal(t, resp.TypeInteger, result.Type)
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "INCRBY", "counter", "4")
	assert.Equal(t, int64(5), result.Int)

	result = exec(t, e, conn, "DECR", "counter")
	assert.Equal(t, int64(4), result.Int)
}

func TestGenericTypeAndExpire(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "SET", "k", "v")

	result := exec(t, e, conn, "TYPE", "k")
	require.Equal(t, resp.TypeSimpleString, result.Type)
	assert.Equal(t, "string", result.Str)

	result = exec(t, e, conn, "EXISTS", "k", "nope")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "EXPIRE", "k", "100")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "TTL", "k")
	require.Equal(t, resp.TypeInteger, result.Type)
	assert.Greater(t, result.Int, int64(0))

	result = exec(t, e, conn, "PERSIST", "k")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "DEL", "k")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "EXISTS", "k")
	assert.Equal(t, int64(0), result.Int)
}

func TestWrongTypeError(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "LPUSH", "alist", "a", "b")
	result := exec(t, e, conn, "GET", "alist")
	assert.Equal(t, resp.TypeError, result.Type)
}

func TestHashRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	result := exec(t, e, conn, "HSET", "h", "f1", "v1", "f2", "v2")
	require.Equal(t, resp.TypeInteger, result.Type)
	assert.Equal(t, int64(2), result.Int)

	result = exec(t, e, conn, "HGET", "h", "f1")
	assert.Equal(t, "v1", result.Str)

	result = exec(t, e, conn, "HLEN", "h")
	assert.Equal(t, int64(2), result.Int)
}

func TestListPushPop(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "RPUSH", "l", "a", "b", "c")
	result := exec(t, e, conn, "LRANGE", "l", "0", "-1")
	require.Equal(t, resp.TypeArray, result.Type)
	require.Len(t, result.Array, 3)
	assert.Equal(t, "a", result.Array[0].Str)

	result = exec(t, e, conn, "LPOP", "l")
	assert.Equal(t, "a", result.Str)
}

func TestSetMembers(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "SADD", "s", "a", "b", "a")
	result := exec(t, e, conn, "SCARD", "s")
	assert.Equal(t, int64(2), result.Int)

	result = exec(t, e, conn, "SISMEMBER", "s", "a")
	assert.Equal(t, int64(1), result.Int)
}

func TestZSetRange(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "ZADD", "z", "1", "a", "2", "b", "3", "c")
	result := exec(t, e, conn, "ZRANGE", "z", "0", "-1", "WITHSCORES")
	require.Equal(t, resp.TypeArray, result.Type)
	require.Len(t, result.Array, 6)
	assert.Equal(t, "a", result.Array[0].Str)
	assert.Equal(t, "1", result.Array[1].Str)
}

func TestMultiExecWatchAbort(t *testing.T) {
	e := newTestEngine(t)
	writer := engine.NewConnState("writer", &fakeSink{})
	watcher := engine.NewConnState("watcher", &fakeSink{})

	exec(t, e, writer, "SET", "wk", "1")

	result := exec(t, e, watcher, "WATCH", "wk")
	require.Equal(t, "OK", result.Str)

	result = exec(t, e, watcher, "MULTI")
	require.Equal(t, "OK", result.Str)
	assert.Equal(t, engine.ModeQueued, watcher.Mode)

	result = exec(t, e, watcher, "SET", "wk", "2")
	assert.Equal(t, "QUEUED", result.Str)

	// A different connection mutates the watched key before EXEC.
	exec(t, e, writer, "SET", "wk", "other")

	result = exec(t, e, watcher, "EXEC")
	assert.Equal(t, resp.TypeNullArray, result.Type)
	assert.Equal(t, engine.ModeNormal, watcher.Mode)
}

func TestMultiExecSucceeds(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	exec(t, e, conn, "MULTI")
	exec(t, e, conn, "SET", "a", "1")
	exec(t, e, conn, "INCR", "a")

	result := exec(t, e, conn, "EXEC")
	require.Equal(t, resp.TypeArray, result.Type)
	require.Len(t, result.Array, 2)
	assert.Equal(t, "OK", result.Array[0].Str)
	assert.Equal(t, int64(2), result.Array[1].Int)
}

func TestSubscribeRejectedInsideMulti(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	result := exec(t, e, conn, "MULTI")
	require.Equal(t, "OK", result.Str)
	require.Equal(t, engine.ModeQueued, conn.Mode)

	result = exec(t, e, conn, "SUBSCRIBE", "news")
	assert.Equal(t, resp.TypeError, result.Type)
	assert.Equal(t, engine.ModeQueued, conn.Mode)

	result = exec(t, e, conn, "SET", "a", "1")
	assert.Equal(t, "QUEUED", result.Str)

	result = exec(t, e, conn, "EXEC")
	require.Equal(t, resp.TypeArray, result.Type)
	require.Len(t, result.Array, 1)
	assert.Equal(t, "OK", result.Array[0].Str)
}

func TestXGroupDestroyAbortsWatchedExec(t *testing.T) {
	e := newTestEngine(t)
	writer := engine.NewConnState("writer", &fakeSink{})
	watcher := engine.NewConnState("watcher", &fakeSink{})

	exec(t, e, writer, "XADD", "s", "*", "field", "value")
	exec(t, e, writer, "XGROUP", "CREATE", "s", "g", "0")

	result := exec(t, e, watcher, "WATCH", "s")
	require.Equal(t, "OK", result.Str)

	result = exec(t, e, watcher, "MULTI")
	require.Equal(t, "OK", result.Str)

	result = exec(t, e, watcher, "XLEN", "s")
	assert.Equal(t, "QUEUED", result.Str)

	result = exec(t, e, writer, "XGROUP", "DESTROY", "s", "g")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, watcher, "EXEC")
	assert.Equal(t, resp.TypeNullArray, result.Type)
}

func TestPubSubSubscribePublish(t *testing.T) {
	e := newTestEngine(t)
	sink := &fakeSink{}
	sub := engine.NewConnState("sub", sink)

	result := exec(t, e, sub, "SUBSCRIBE", "news")
	assert.Equal(t, resp.TypeNone, result.Type)
	assert.Equal(t, engine.ModeSubscribed, sub.Mode)
	require.Len(t, sink.frames, 1)
	assert.Equal(t, []string{"subscribe", "news", "1"}, sink.frames[0])

	pub := engine.NewConnState("pub", &fakeSink{})
	result = exec(t, e, pub, "PUBLISH", "news", "hello")
	assert.Equal(t, int64(1), result.Int)
	require.Len(t, sink.frames, 2)
	assert.Equal(t, []string{"message", "news", "hello"}, sink.frames[1])
}

func TestStreamAddAndRange(t *testing.T) {
	e := newTestEngine(t)
	conn := engine.NewConnState("c1", &fakeSink{})

	result := exec(t, e, conn, "XADD", "s", "*", "field", "value")
	require.Equal(t, resp.TypeBulkString, result.Type)
	id := result.Str
	require.NotEmpty(t, id)

	result = exec(t, e, conn, "XLEN", "s")
	assert.Equal(t, int64(1), result.Int)

	result = exec(t, e, conn, "TYPE", "s")
	assert.Equal(t, "stream", result.Str)

	result = exec(t, e, conn, "XRANGE", "s", "-", "+")
	require.Equal(t, resp.TypeArray, result.Type)
	require.Len(t, result.Array, 1)
}
