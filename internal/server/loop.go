package server

import (
	"errors"
	"time"

	"termibbl/internal/game"
	"termibbl/internal/protocol"
)

type event interface{}

type joinRequest struct {
	c    *conn
	name string
}

type clientMessage struct {
	c   *conn
	msg protocol.ClientMessage
}

type connClosed struct {
	c *conn
}

type timerFired struct {
	kind       game.TimerKind
	generation uint64
}

type stateRequest struct {
	reply chan game.Summary
}

// post hands an event to the loop. It gives up once the server stops.
func (s *Server) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// loop is the only goroutine that touches the session.
func (s *Server) loop() {
	defer s.stopTimers()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Server) handle(ev event) {
	switch ev := ev.(type) {
	case joinRequest:
		s.handleJoin(ev)
	case clientMessage:
		s.handleMessage(ev)
	case connClosed:
		s.handleClosed(ev)
	case timerFired:
		if !s.session.HandleTimer(ev.kind, ev.generation) {
			s.log.Debug().Str("kind", string(ev.kind)).Uint64("generation", ev.generation).Msg("stale timer ignored")
		}
	case stateRequest:
		ev.reply <- s.session.Summary()
	}
	s.flush()
}

func (s *Server) handleJoin(ev joinRequest) {
	id, err := s.session.Join(ev.name)
	if err != nil {
		kind := protocol.KindProtocolError
		var gerr *game.Error
		if errors.As(err, &gerr) {
			kind = gerr.Kind
		}
		if id == "" {
			ev.c.log.Info().Str("name", ev.name).Str("kind", string(kind)).Msg("join rejected")
			ev.c.fail(kind, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("start round after join failed")
	}
	ev.c.playerID = id
	s.conns[id] = ev.c
}

func (s *Server) handleMessage(ev clientMessage) {
	id := ev.c.playerID
	if id == "" || s.conns[id] != ev.c {
		return
	}
	err := s.session.Apply(id, ev.msg)
	if err != nil {
		var gerr *game.Error
		if !errors.As(err, &gerr) {
			gerr = &game.Error{Kind: protocol.KindProtocolError, Detail: err.Error()}
		}
		ev.c.log.Debug().Str("player_id", id).Str("type", ev.msg.Type()).Str("kind", string(gerr.Kind)).Msg("message rejected")
		if gerr.Kind.Fatal() {
			ev.c.fail(gerr.Kind, gerr.Detail)
			return
		}
		if !ev.c.sendError(gerr.Kind, gerr.Detail) {
			ev.c.close()
		}
		return
	}
	if _, ok := ev.msg.(protocol.Leave); ok {
		delete(s.conns, id)
		ev.c.playerID = ""
		ev.c.closeAfterFlush()
	}
}

func (s *Server) handleClosed(ev connClosed) {
	id := ev.c.playerID
	if id == "" || s.conns[id] != ev.c {
		return
	}
	delete(s.conns, id)
	ev.c.playerID = ""
	s.session.Disconnect(id)
}

// flush writes the session's deliveries in application order and arms the
// requested timers. A connection whose queue is full is treated as lost.
func (s *Server) flush() {
	eff := s.session.Drain()
	for _, d := range eff.Deliveries {
		payload, err := protocol.EncodeServer(d.Message, d.Seq)
		if err != nil {
			s.log.Error().Err(err).Str("type", d.Message.Type()).Msg("encode failed")
			continue
		}
		for _, id := range d.To {
			c, ok := s.conns[id]
			if !ok {
				continue
			}
			if !c.enqueue(payload) {
				c.log.Warn().Str("player_id", id).Msg("outbound queue full, dropping connection")
				c.close()
			}
		}
	}
	for _, req := range eff.Timers {
		s.schedule(req)
	}
}

// Summary asks the loop for a consistent view of the session.
func (s *Server) Summary() (game.Summary, bool) {
	reply := make(chan game.Summary, 1)
	if !s.post(stateRequest{reply: reply}) {
		return game.Summary{}, false
	}
	select {
	case sum := <-reply:
		return sum, true
	case <-s.ctx.Done():
		return game.Summary{}, false
	case <-time.After(5 * time.Second):
		return game.Summary{}, false
	}
}

// serve runs the read side of a connection: handshake, then decode, rate
// limit and post every message to the loop.
func (s *Server) serve(t transport) {
	c := s.newConn(t)
	if !s.track(c) {
		_ = t.Close()
		return
	}
	defer s.untrack(c)
	go c.writePump(s.heartbeat() / 2)
	defer func() {
		c.close()
		s.post(connClosed{c: c})
	}()

	handshake := seconds(s.cfg.HandshakeSeconds)
	_ = t.SetReadDeadline(time.Now().Add(handshake))
	payload, err := t.ReadPayload()
	if err != nil {
		c.log.Debug().Err(err).Msg("handshake read failed")
		return
	}
	msg, err := protocol.DecodeClient(payload)
	if err != nil {
		kind := protocol.KindOf(err)
		if !kind.Fatal() {
			kind = protocol.KindProtocolError
		}
		s.reject(c, kind, err.Error())
		return
	}
	join, ok := msg.(protocol.Join)
	if !ok {
		s.reject(c, protocol.KindProtocolError, "first message must be join")
		return
	}
	if !s.post(joinRequest{c: c, name: join.Username}) {
		return
	}

	for {
		_ = t.SetReadDeadline(time.Now().Add(s.heartbeat()))
		payload, err := t.ReadPayload()
		if err != nil {
			if !isClosedConn(err) {
				c.log.Debug().Err(err).Msg("read failed")
			}
			if protocol.IsFramingError(err) || errors.Is(err, errTextMessage) {
				s.reject(c, protocol.KindProtocolError, err.Error())
			}
			return
		}
		msg, err := protocol.DecodeClient(payload)
		if err != nil {
			kind := protocol.KindOf(err)
			if kind.Fatal() {
				s.reject(c, kind, err.Error())
				return
			}
			c.log.Debug().Err(err).Msg("message rejected")
			if !c.sendError(kind, err.Error()) {
				return
			}
			continue
		}
		if !c.limiter.Allow() {
			if !c.sendError(protocol.KindRateLimited, "slow down") {
				return
			}
			continue
		}
		if !s.post(clientMessage{c: c, msg: msg}) {
			return
		}
	}
}

// reject sends a fatal error from the read side and waits for it to be
// written before the connection closes.
func (s *Server) reject(c *conn, kind protocol.ErrorKind, detail string) {
	c.log.Info().Str("kind", string(kind)).Str("detail", detail).Msg("closing connection")
	c.fail(kind, detail)
	select {
	case <-c.closed():
	case <-time.After(writeWait):
	}
}
