package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinedb/internal/commands"
	"spinedb/internal/engine"
)

// startTestTCPServer spins up a real listener on an OS-assigned port,
// grounded on the teacher's test/redis/set_get_test.go pattern of
// accepting one real net.Listener per test rather than mocking the
// transport, and drives it with the go-redis client the rest of the
// pack's dependency graph already carries.
func startTestTCPServer(t *testing.T) (*Server, string) {
	t.Helper()

	eng := engine.NewEngine()
	commands.Register(eng.Registry)
	srv := NewServer(eng, zerolog.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, conn.RemoteAddr().String(), "tcp")
		}
	}()
	t.Cleanup(func() { ln.Close() })

	return srv, ln.Addr().String()
}

func TestIntegrationPingSetGet(t *testing.T) {
	_, addr := startTestTCPServer(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	pong, err := client.Ping(ctx).Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	val, err := client.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestIntegrationMGetWithGaps(t *testing.T) {
	_, addr := startTestTCPServer(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	require.NoError(t, client.Set(ctx, "a", "1", 0).Err())
	require.NoError(t, client.Set(ctx, "c", "3", 0).Err())

	vals, err := client.MGet(ctx, "a", "b", "c").Result()
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, "1", vals[0])
	assert.Nil(t, vals[1])
	assert.Equal(t, "3", vals[2])
}

func TestIntegrationSortedSetWithScores(t *testing.T) {
	_, addr := startTestTCPServer(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	require.NoError(t, client.ZAdd(ctx, "z",
		&redis.Z{Score: 1, Member: "a"},
		&redis.Z{Score: 2, Member: "b"},
	).Err())

	members, err := client.ZRangeWithScores(ctx, "z", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].Member)
	assert.Equal(t, float64(1), members[0].Score)
}

func TestIntegrationWatchAbortsExec(t *testing.T) {
	_, addr := startTestTCPServer(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	other := redis.NewClient(&redis.Options{Addr: addr})
	defer other.Close()

	require.NoError(t, client.Set(ctx, "wk", "1", 0).Err())

	err := client.Watch(ctx, func(tx *redis.Tx) error {
		require.NoError(t, other.Set(ctx, "wk", "other", 0).Err())

		_, execErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, "wk", "2", 0)
			return nil
		})
		return execErr
	}, "wk")

	assert.ErrorIs(t, err, redis.TxFailedErr)
}

func TestIntegrationPubSubDelivery(t *testing.T) {
	_, addr := startTestTCPServer(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	publisher := redis.NewClient(&redis.Options{Addr: addr})
	defer publisher.Close()

	sub := client.PSubscribe(ctx, "news.*")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		publisher.Publish(ctx, "news.sports", "goal")
	}()

	msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	assert.Equal(t, "news.sports", msg.Channel)
	assert.Equal(t, "news.*", msg.Pattern)
	assert.Equal(t, "goal", msg.Payload)
}
