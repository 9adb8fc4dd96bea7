package server

import (
	"bufio"
	"net"
	"time"

	"termibbl/internal/protocol"
)

// tcpTransport carries length-prefixed frames over a TCP stream.
type tcpTransport struct {
	c        net.Conn
	r        *bufio.Reader
	maxFrame int
}

func newTCPTransport(c net.Conn, maxFrame int) *tcpTransport {
	return &tcpTransport{c: c, r: bufio.NewReader(c), maxFrame: maxFrame}
}

func (t *tcpTransport) ReadPayload() ([]byte, error) {
	return protocol.ReadFrame(t.r, t.maxFrame)
}

func (t *tcpTransport) WritePayload(payload []byte) error {
	_ = t.c.SetWriteDeadline(time.Now().Add(writeWait))
	return protocol.WriteFrame(t.c, payload)
}

// Ping is a no-op; TCP clients keep the connection alive with ping messages.
func (t *tcpTransport) Ping() error { return nil }

func (t *tcpTransport) SetReadDeadline(at time.Time) error { return t.c.SetReadDeadline(at) }

func (t *tcpTransport) RemoteAddr() string { return t.c.RemoteAddr().String() }

func (t *tcpTransport) Close() error { return t.c.Close() }

func (s *Server) acceptTCP(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}
		if tc, ok := c.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		go s.serve(newTCPTransport(c, s.cfg.MaxFrameBytes))
	}
}
