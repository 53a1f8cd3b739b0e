package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinedb/internal/commands"
	"spinedb/internal/engine"
)

// newTestServer builds an Engine with every command family registered,
// mirroring what cmd/spinedb wires at startup.
func newTestServer() *Server {
	eng := engine.NewEngine()
	commands.Register(eng.Registry)
	return NewServer(eng, zerolog.Nop())
}

func TestServeRespondsOverPipe(t *testing.T) {
	srv := newTestServer()
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	go srv.serve(serverConn, "pipe", "tcp")

	_, err := clientConn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(clientConn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", line)
}

func TestServeSetGetRoundTrip(t *testing.T) {
	srv := newTestServer()
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	go srv.serve(serverConn, "pipe", "tcp")

	_, err := clientConn.Write([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(clientConn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", line)

	_, err = clientConn.Write([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	require.NoError(t, err)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "$3\r\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "bar\r\n", line)
}

func TestServeQuitClosesConnection(t *testing.T) {
	srv := newTestServer()
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	done := make(chan struct{})
	go func() {
		srv.serve(serverConn, "pipe", "tcp")
		close(done)
	}()

	_, err := clientConn.Write([]byte("*1\r\n$4\r\nQUIT\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(clientConn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", line)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve did not return after QUIT")
	}
}
