package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"termibbl/internal/protocol"
)

// fakeServer accepts one connection, checks the join and replies with the
// given messages.
func fakeServer(t *testing.T, replies []protocol.ServerMessage, seqs []uint64) (string, <-chan protocol.Join) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	joins := make(chan protocol.Join, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		payload, err := protocol.ReadFrame(bufio.NewReader(conn), 0)
		if err != nil {
			return
		}
		msg, err := protocol.DecodeClient(payload)
		if err != nil {
			return
		}
		if join, ok := msg.(protocol.Join); ok {
			joins <- join
		}
		for i, reply := range replies {
			out, err := protocol.EncodeServer(reply, seqs[i])
			if err != nil {
				return
			}
			if err := protocol.WriteFrame(conn, out); err != nil {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}()
	return ln.Addr().String(), joins
}

func dial(t *testing.T, addr, name string) (*Client, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return DialWithOptions(ctx, addr, name, Options{Heartbeat: -1})
}

func TestDialReceivesWelcomeAndEvents(t *testing.T) {
	addr, joins := fakeServer(t, []protocol.ServerMessage{
		protocol.Welcome{PlayerID: "p1", Phase: "lobby"},
		protocol.ChatEvent{SenderID: "p2", Name: "Bob", Text: "hi"},
	}, []uint64{1, 2})
	c, err := dial(t, addr, "Ada")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if join := <-joins; join.Username != "Ada" {
		t.Fatalf("server saw join %#v", join)
	}
	if c.Welcome().PlayerID != "p1" {
		t.Fatalf("unexpected welcome %#v", c.Welcome())
	}
	select {
	case msg := <-c.Events():
		chat, ok := msg.(protocol.ChatEvent)
		if !ok || chat.Text != "hi" {
			t.Fatalf("unexpected event %#v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for chat event")
	}
}

func TestDialJoinRefused(t *testing.T) {
	addr, _ := fakeServer(t, []protocol.ServerMessage{
		protocol.Error{Kind: protocol.KindNameTaken, Detail: "taken"},
	}, []uint64{0})
	_, err := dial(t, addr, "Ada")
	var joinErr *JoinError
	if !errors.As(err, &joinErr) || joinErr.Kind != protocol.KindNameTaken {
		t.Fatalf("expected name taken, got %v", err)
	}
}

func TestOutOfOrderSequenceEndsEvents(t *testing.T) {
	addr, _ := fakeServer(t, []protocol.ServerMessage{
		protocol.Welcome{PlayerID: "p1"},
		protocol.PhaseChanged{Phase: "lobby"},
		protocol.PhaseChanged{Phase: "lobby"},
	}, []uint64{5, 7, 6})
	c, err := dial(t, addr, "Ada")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				if !errors.Is(c.Err(), ErrOutOfOrder) {
					t.Fatalf("expected out of order error, got %v", c.Err())
				}
				return
			}
		case <-deadline:
			t.Fatalf("events never closed")
		}
	}
}
