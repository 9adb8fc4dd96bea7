package game

import "termibbl/internal/protocol"

// Apply dispatches a validated client message from player.
func (s *Session) Apply(player string, msg protocol.ClientMessage) error {
	if _, ok := s.players.get(player); !ok {
		return ErrUnknownPlayer
	}
	return msg.Dispatch(router{s: s, player: player})
}

type router struct {
	s      *Session
	player string
}

var _ protocol.ClientHandler = router{}

func (r router) HandleJoin(protocol.Join) error {
	return fail(protocol.KindProtocolError, "already joined")
}

func (r router) HandleStroke(m protocol.Stroke) error {
	return r.s.ApplyStroke(r.player, m)
}

func (r router) HandleClearCanvas(protocol.ClearCanvas) error {
	return r.s.ClearCanvas(r.player)
}

func (r router) HandleChatOrGuess(m protocol.ChatOrGuess) error {
	return r.s.SubmitGuess(r.player, m.Text)
}

func (r router) HandleSelectWord(m protocol.SelectWord) error {
	return r.s.SelectWord(r.player, m.Index)
}

func (r router) HandleLeave(protocol.Leave) error {
	return r.s.Leave(r.player)
}

func (r router) HandlePing(protocol.Ping) error { return nil }
