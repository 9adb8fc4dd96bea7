package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"termibbl/internal/protocol"
)

const (
	DefaultHeartbeat = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// JoinError is the server's reason for refusing the handshake.
type JoinError struct {
	Kind   protocol.ErrorKind
	Detail string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join refused: %s: %s", e.Kind, e.Detail)
}

var ErrOutOfOrder = errors.New("client: server messages out of order")

type Options struct {
	// Heartbeat is the ping interval; 0 uses DefaultHeartbeat, negative disables it.
	Heartbeat time.Duration
	MaxFrame  int
	Buffer    int
}

// Client is a TCP game connection. Events are delivered in server order.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	opts    Options
	welcome protocol.Welcome
	lastSeq uint64

	events chan protocol.ServerMessage
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects, joins as name and waits for the welcome.
func Dial(ctx context.Context, addr, name string) (*Client, error) {
	return DialWithOptions(ctx, addr, name, Options{})
}

func DialWithOptions(ctx context.Context, addr, name string, opts Options) (*Client, error) {
	if opts.Heartbeat == 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.MaxFrame <= 0 {
		opts.MaxFrame = protocol.DefaultMaxFrame
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Client{
		conn:   conn,
		r:      bufio.NewReader(conn),
		opts:   opts,
		events: make(chan protocol.ServerMessage, opts.Buffer),
		done:   make(chan struct{}),
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(handshakeTimeout)
	}
	_ = conn.SetDeadline(deadline)
	if err := c.Send(protocol.Join{Username: name}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := c.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	go c.readLoop()
	if opts.Heartbeat > 0 {
		go c.heartbeat()
	}
	return c, nil
}

func (c *Client) handshake() error {
	msg, err := c.next()
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	switch m := msg.(type) {
	case protocol.Welcome:
		c.welcome = m
		return nil
	case protocol.Error:
		return &JoinError{Kind: m.Kind, Detail: m.Detail}
	default:
		return fmt.Errorf("handshake: unexpected %s", msg.Type())
	}
}

func (c *Client) next() (protocol.ServerMessage, error) {
	payload, err := protocol.ReadFrame(c.r, c.opts.MaxFrame)
	if err != nil {
		return nil, err
	}
	msg, seq, err := protocol.DecodeServer(payload)
	if err != nil {
		return nil, err
	}
	if seq != 0 {
		if seq <= c.lastSeq {
			return nil, fmt.Errorf("%w: seq %d after %d", ErrOutOfOrder, seq, c.lastSeq)
		}
		c.lastSeq = seq
	}
	return msg, nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		msg, err := c.next()
		if err != nil {
			c.setErr(err)
			c.Close()
			return
		}
		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) heartbeat() {
	ticker := time.NewTicker(c.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Send(protocol.Ping{}); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Welcome returns the handshake snapshot.
func (c *Client) Welcome() protocol.Welcome { return c.welcome }

// Events is closed when the connection ends; Err reports why.
func (c *Client) Events() <-chan protocol.ServerMessage { return c.events }

func (c *Client) Send(msg protocol.ClientMessage) error {
	payload, err := protocol.EncodeClient(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := protocol.WriteFrame(c.conn, payload); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type(), err)
	}
	return nil
}

func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		select {
		case <-c.done:
		default:
			c.err = err
		}
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
