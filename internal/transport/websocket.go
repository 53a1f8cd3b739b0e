package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wsConn adapts a *websocket.Conn to io.ReadWriteCloser so serve can
// drive it through the identical resp.Reader/resp.Writer pair as a
// plain TCP socket — SPEC_FULL.md §9.2's "not a second protocol
// implementation, just a second framing for the same commands".
// Inbound RESP bytes travel as binary WebSocket frames; ReadMessage
// boundaries don't need to line up with RESP command boundaries, so
// reads are buffered across frames.
type wsConn struct {
	ws  *websocket.Conn
	buf []byte
}

func (w *wsConn) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		_, data, err := w.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.buf = data
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error { return w.ws.Close() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Accepts any origin: this tunnel has no browser cookie/session
	// state to protect, it only forwards RESP commands.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes wires the gin endpoints SPEC_FULL.md §9.2 lists:
// a RESP-over-WebSocket tunnel at /ws, and operator-facing /health and
// /stats JSON endpoints.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", s.handleWS)
	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.serve(&wsConn{ws: conn}, c.Request.RemoteAddr, "ws")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": s.conns.Count(),
		"keys":        len(s.Engine.DB.Keys()),
	})
}

// ListenAndServeHTTP starts the gin-routed HTTP/WebSocket ingress.
func (s *Server) ListenAndServeHTTP(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	s.Log.Info().Str("addr", addr).Msg("http/ws listener started")
	return http.ListenAndServe(addr, r)
}
