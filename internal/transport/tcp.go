package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"spinedb/internal/engine"
	"spinedb/internal/pubsub"
	"spinedb/internal/resp"
)

// Server owns the shared engine plus every ingress (TCP, WebSocket)
// that feeds it commands. Grounded on the teacher's TCPTransport, one
// level up: the teacher has a transport per protocol with its own
// ConnectionManager; here one Server multiplexes both protocols onto
// one ConnectionManager since they both terminate in the same
// Dispatcher.Execute call.
type Server struct {
	Engine *engine.Engine
	Log    zerolog.Logger
	conns  *ConnectionManager
}

func NewServer(e *engine.Engine, log zerolog.Logger) *Server {
	return &Server{Engine: e, Log: log, conns: NewConnectionManager()}
}

func (s *Server) Connections() *ConnectionManager { return s.conns }

// ListenAndServeTCP runs the accept loop, grounded on the teacher's
// TCPTransport.acceptConnections: one goroutine per accepted
// connection, looping until the listener is closed.
func (s *Server) ListenAndServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.Log.Info().Str("addr", addr).Msg("tcp listener started")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Log.Warn().Err(err).Msg("tcp accept failed")
			continue
		}
		go s.serve(conn, conn.RemoteAddr().String(), "tcp")
	}
}

// connSink adapts a resp.Writer to pubsub.Sink and serializes it
// against the same connection's command-reply writes — PUBLISH on one
// connection can deliver into this sink from another goroutine at any
// time, including mid-reply.
type connSink struct {
	mu     sync.Mutex
	writer *resp.Writer
}

func (c *connSink) Send(fields ...string) error {
	vals := make([]resp.Value, len(fields))
	for i, f := range fields {
		vals[i] = resp.Str(f)
	}
	// Subscription acks carry their count as a RESP integer.
	if len(fields) == 3 {
		switch fields[0] {
		case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
			if n, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				vals[2] = resp.Int(n)
			}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer.WriteValueFlush(resp.ArrOf(vals))
}

var _ pubsub.Sink = (*connSink)(nil)

// serve runs one connection's command loop until the client
// disconnects, sends QUIT, or a protocol error occurs. Shared between
// the TCP and WebSocket ingresses (websocket.go wraps a
// *websocket.Conn in an io.ReadWriteCloser and calls this the same
// way).
func (s *Server) serve(rwc io.ReadWriteCloser, remote, protocol string) {
	id := generateID()
	reader := resp.NewReader(rwc)
	writer := resp.NewWriter(rwc)
	sink := &connSink{writer: writer}
	state := engine.NewConnState(id, sink)

	ctx, cancel := context.WithCancel(context.Background())
	info := &ConnInfo{ID: id, Remote: remote, Protocol: protocol, State: state, cancel: cancel}
	s.conns.Add(info)

	s.Log.Debug().Str("conn", id).Str("remote", remote).Str("protocol", protocol).Msg("connection accepted")

	defer func() {
		cancel()
		rwc.Close()
		s.conns.Remove(id)
		s.Engine.PubSub.RemoveConnection(id)
		s.Engine.Txn.RemoveConnection(id)
		s.Log.Debug().Str("conn", id).Msg("connection closed")
	}()

	for {
		cmd, err := reader.ReadCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.Log.Debug().Str("conn", id).Err(err).Msg("command read failed")
			}
			return
		}

		result := s.Engine.Dispatcher.Execute(ctx, state, cmd)

		sink.mu.Lock()
		err = writer.WriteValueFlush(result)
		sink.mu.Unlock()
		if err != nil {
			s.Log.Debug().Str("conn", id).Err(err).Msg("reply write failed")
			return
		}

		if strings.EqualFold(cmd.Name, "QUIT") {
			return
		}
	}
}
