package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"termibbl/internal/client"
	"termibbl/internal/config"
	"termibbl/internal/protocol"
	"termibbl/internal/words"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Width, cfg.Height = 20, 10
	cfg.WordSelectSeconds = 30
	cfg.DrawSeconds = 60
	cfg.RoundEndSeconds = 30
	cfg.HintSeconds = 0
	cfg.HandshakeSeconds = 2
	cfg.HeartbeatSeconds = 5
	cfg.LogPretty = false
	return cfg
}

// startServer runs a game server on a loopback port and returns its TCP address.
func startServer(t *testing.T, configure func(*config.Config)) (*Server, string) {
	t.Helper()
	cfg := testConfig()
	if configure != nil {
		configure(&cfg)
	}
	bank, err := words.New([]string{"giraffe", "rainbow", "lighthouse"}, 1, nil)
	if err != nil {
		t.Fatalf("word bank: %v", err)
	}
	srv, err := New(cfg, zerolog.Nop(), bank)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln, nil) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func join(t *testing.T, addr, name string) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := client.DialWithOptions(ctx, addr, name, client.Options{Heartbeat: -1})
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// waitFor reads events until one of type T satisfies match.
func waitFor[T protocol.ServerMessage](t *testing.T, c *client.Client, match func(T) bool) T {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg, ok := <-c.Events():
			if !ok {
				t.Fatalf("connection closed while waiting: %v", c.Err())
			}
			if m, ok := msg.(T); ok && (match == nil || match(m)) {
				return m
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %s", zero.Type())
		}
	}
}

// rawConn speaks the frame protocol directly, for handshake tests.
type rawConn struct {
	net.Conn
	r *bufio.Reader
}

func dialRaw(t *testing.T, addr string) *rawConn {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))
	return &rawConn{Conn: c, r: bufio.NewReader(c)}
}

func (c *rawConn) send(t *testing.T, msg protocol.ClientMessage) {
	t.Helper()
	payload, err := protocol.EncodeClient(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := protocol.WriteFrame(c, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (c *rawConn) recv(t *testing.T) protocol.ServerMessage {
	t.Helper()
	payload, err := protocol.ReadFrame(c.r, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, _, err := protocol.DecodeServer(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
