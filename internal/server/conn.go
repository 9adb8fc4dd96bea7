package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"termibbl/internal/protocol"
)

const writeWait = 10 * time.Second

// transport moves whole payloads. Only the write pump calls WritePayload and
// Ping; only the read pump calls ReadPayload.
type transport interface {
	ReadPayload() ([]byte, error)
	WritePayload([]byte) error
	Ping() error
	SetReadDeadline(time.Time) error
	RemoteAddr() string
	Close() error
}

// conn is one client connection. playerID is owned by the session loop.
type conn struct {
	t       transport
	out     chan []byte
	drain   chan struct{}
	done    chan struct{}
	limiter *rate.Limiter
	log     zerolog.Logger

	drainOnce sync.Once
	closeOnce sync.Once

	playerID string
}

func newConn(t transport, queue int, limit rate.Limit, burst int, logger zerolog.Logger) *conn {
	return &conn{
		t:       t,
		out:     make(chan []byte, queue),
		drain:   make(chan struct{}),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(limit, burst),
		log:     logger.With().Str("remote", t.RemoteAddr()).Logger(),
	}
}

// enqueue hands a payload to the write pump without blocking. It reports
// false when the queue is full or the connection is closed.
func (c *conn) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

func (c *conn) sendError(kind protocol.ErrorKind, detail string) bool {
	payload, err := protocol.EncodeServer(protocol.Error{Kind: kind, Detail: detail}, 0)
	if err != nil {
		return false
	}
	return c.enqueue(payload)
}

// fail reports a fatal error and closes once it has been written.
func (c *conn) fail(kind protocol.ErrorKind, detail string) {
	c.sendError(kind, detail)
	c.closeAfterFlush()
}

func (c *conn) closeAfterFlush() {
	c.drainOnce.Do(func() { close(c.drain) })
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.t.Close()
	})
}

func (c *conn) closed() <-chan struct{} { return c.done }

func (c *conn) writePump(pingEvery time.Duration) {
	defer c.close()
	var ticks <-chan time.Time
	if pingEvery > 0 {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		ticks = ticker.C
	}
	for {
		select {
		case payload := <-c.out:
			if err := c.t.WritePayload(payload); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticks:
			if err := c.t.Ping(); err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				return
			}
		case <-c.drain:
			for {
				select {
				case payload := <-c.out:
					if err := c.t.WritePayload(payload); err != nil {
						return
					}
				default:
					return
				}
			}
		case <-c.done:
			return
		}
	}
}

// isClosedConn reports errors that only mean the peer went away.
func isClosedConn(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}
