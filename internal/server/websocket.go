package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var errTextMessage = errors.New("websocket: text messages are not supported")

// wsTransport carries one envelope per binary websocket message.
type wsTransport struct {
	c         *websocket.Conn
	heartbeat time.Duration
}

func newWSTransport(c *websocket.Conn, maxFrame int, heartbeat time.Duration) *wsTransport {
	c.SetReadLimit(int64(maxFrame))
	t := &wsTransport{c: c, heartbeat: heartbeat}
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(heartbeat))
	})
	return t
}

func (t *wsTransport) ReadPayload() ([]byte, error) {
	kind, data, err := t.c.ReadMessage()
	if err != nil {
		return nil, err
	}
	if kind != websocket.BinaryMessage {
		return nil, errTextMessage
	}
	return data, nil
}

func (t *wsTransport) WritePayload(payload []byte) error {
	_ = t.c.SetWriteDeadline(time.Now().Add(writeWait))
	return t.c.WriteMessage(websocket.BinaryMessage, payload)
}

func (t *wsTransport) Ping() error {
	return t.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (t *wsTransport) SetReadDeadline(at time.Time) error { return t.c.SetReadDeadline(at) }

func (t *wsTransport) RemoteAddr() string { return t.c.RemoteAddr().String() }

func (t *wsTransport) Close() error {
	_ = t.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return t.c.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebsocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.log.Debug().Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	go s.serve(newWSTransport(ws, s.cfg.MaxFrameBytes, s.heartbeat()))
}
