package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"termibbl/internal/canvas"
	"termibbl/internal/protocol"
	"termibbl/internal/scoring"
	"termibbl/internal/words"
)

const (
	MinPlayers         = 2
	DefaultRecentWords = 20
)

type Options struct {
	Width, Height int
	MaxPlayers    int
	MinPlayers    int
	// Rounds is the number of full rotation cycles per game; 0 never ends.
	Rounds      int
	WordChoices int
	ChatHistory int

	WordSelect time.Duration
	Draw       time.Duration
	RoundEnd   time.Duration
	// Hint is the interval between letter reveals; 0 disables hints.
	Hint time.Duration

	Words   *words.Bank
	Scoring scoring.Policy
	Log     *zerolog.Logger
	Now     func() time.Time
	Rand    *rand.Rand
	NewID   func() string
}

func DefaultOptions() Options {
	return Options{
		Width:       100,
		Height:      40,
		MaxPlayers:  12,
		MinPlayers:  MinPlayers,
		Rounds:      3,
		WordChoices: 3,
		ChatHistory: 50,
		WordSelect:  15 * time.Second,
		Draw:        120 * time.Second,
		RoundEnd:    5 * time.Second,
		Hint:        30 * time.Second,
		Scoring:     scoring.Default(),
	}
}

// Delivery is one server message addressed to a set of players. Seq is
// assigned in application order.
type Delivery struct {
	Seq     uint64
	To      []string
	Message protocol.ServerMessage
}

// TimerRequest asks the caller to deliver HandleTimer(Kind, Generation)
// after the given delay.
type TimerRequest struct {
	Kind       TimerKind
	Generation uint64
	After      time.Duration
}

// Effects is everything an operation produced for the outside world.
type Effects struct {
	Deliveries []Delivery
	Timers     []TimerRequest
}

// Session is the authoritative game state. It performs no I/O and is not
// safe for concurrent use: one goroutine applies every operation in turn and
// drains the resulting effects.
type Session struct {
	opts Options
	log  *zerolog.Logger

	players  registry
	rotation rotation
	canvas   *canvas.Canvas
	chat     chatLog

	phase      Phase
	generation uint64
	rounds     int
	round      *Round

	seq     uint64
	pending Effects
}

func New(opts Options) (*Session, error) {
	if opts.MinPlayers < MinPlayers {
		opts.MinPlayers = MinPlayers
	}
	if opts.MaxPlayers < opts.MinPlayers {
		return nil, fmt.Errorf("game: max players %d below minimum %d", opts.MaxPlayers, opts.MinPlayers)
	}
	if opts.WordChoices < 1 {
		opts.WordChoices = 1
	}
	if opts.Log == nil {
		nop := zerolog.Nop()
		opts.Log = &nop
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Words == nil {
		bank, err := words.New(words.Default(), DefaultRecentWords, opts.Rand)
		if err != nil {
			return nil, fmt.Errorf("game: %w", err)
		}
		opts.Words = bank
	}
	board, err := canvas.New(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	return &Session{
		opts:     opts,
		log:      opts.Log,
		players:  newRegistry(),
		rotation: newRotation(),
		canvas:   board,
		chat:     newChatLog(opts.ChatHistory),
		phase:    PhaseLobby,
	}, nil
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Generation() uint64 { return s.generation }

func (s *Session) Canvas() *canvas.Canvas { return s.canvas }

func (s *Session) Player(id string) (Player, bool) {
	p, ok := s.players.get(id)
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Drain returns and clears the effects produced since the last call.
func (s *Session) Drain() Effects {
	out := s.pending
	s.pending = Effects{}
	return out
}

func (s *Session) emit(to []string, msg protocol.ServerMessage) {
	if len(to) == 0 {
		return
	}
	s.seq++
	s.pending.Deliveries = append(s.pending.Deliveries, Delivery{Seq: s.seq, To: to, Message: msg})
}

func (s *Session) broadcast(msg protocol.ServerMessage) {
	s.emit(s.players.connected(), msg)
}

func (s *Session) sendTo(id string, msg protocol.ServerMessage) {
	if s.players.isConnected(id) {
		s.emit([]string{id}, msg)
	}
}

func (s *Session) broadcastExcept(id string, msg protocol.ServerMessage) {
	to := s.players.connected()
	for i, other := range to {
		if other == id {
			to = append(to[:i], to[i+1:]...)
			break
		}
	}
	s.emit(to, msg)
}

func (s *Session) arm(kind TimerKind, after time.Duration) {
	s.pending.Timers = append(s.pending.Timers, TimerRequest{Kind: kind, Generation: s.generation, After: after})
}

func (s *Session) connectedCount() int {
	return len(s.players.connected())
}

// Join admits a player by name. A name that belongs to a disconnected player
// reclaims that player with its ID and score.
func (s *Session) Join(name string) (string, error) {
	name, err := protocol.NormalizeName(name)
	if err != nil {
		return "", fail(protocol.KindInvalidName, "%v", err)
	}
	existing, found := s.players.byName(name)
	if found && existing.Connected {
		return "", fail(protocol.KindNameTaken, "%q is already playing", name)
	}
	if s.connectedCount() >= s.opts.MaxPlayers {
		return "", fail(protocol.KindSessionFull, "session holds %d players", s.opts.MaxPlayers)
	}

	var player *Player
	if found {
		player = existing
		player.Connected = true
		s.rotation.rejoined(player.ID)
		s.log.Info().Str("player_id", player.ID).Str("name", player.Name).Msg("player rejoined")
	} else {
		player = &Player{ID: s.opts.NewID(), Name: name, Connected: true, JoinedAt: s.opts.Now()}
		s.players.add(player)
		s.rotation.joined(player.ID)
		s.log.Info().Str("player_id", player.ID).Str("name", player.Name).Msg("player joined")
	}

	s.sendTo(player.ID, s.welcome(player.ID))
	s.broadcastExcept(player.ID, protocol.PlayerJoined{Player: player.info(), Rejoined: found})

	if s.phase == PhaseLobby && s.connectedCount() >= s.opts.MinPlayers {
		if err := s.StartRound(); err != nil {
			return player.ID, err
		}
	}
	return player.ID, nil
}

func (s *Session) welcome(id string) protocol.Welcome {
	msg := protocol.Welcome{
		PlayerID: id,
		Canvas:   s.canvas.Snapshot(),
		Players:  s.players.infos(),
		Phase:    string(s.phase),
		Round:    s.rounds,
		Chat:     s.chat.public(),
	}
	if s.round != nil && s.phase.roundActive() {
		msg.Drawer = s.round.Drawer
		if s.phase == PhaseDrawing {
			msg.Hint = s.round.hint()
			msg.SecondsLeft = s.secondsLeft()
			if s.round.solved(id) {
				msg.Word = s.round.Word
			}
		}
	}
	return msg
}

// Disconnect marks a player as gone after a transport failure. The player
// keeps its score and can reclaim its slot by joining with the same name.
func (s *Session) Disconnect(id string) {
	p, ok := s.players.get(id)
	if !ok || !p.Connected {
		return
	}
	p.Connected = false
	s.log.Info().Str("player_id", id).Str("name", p.Name).Msg("player disconnected")
	s.broadcast(protocol.PlayerLeft{Player: p.info()})
	s.departed(id)
}

// Leave purges a player from the session.
func (s *Session) Leave(id string) error {
	p, ok := s.players.get(id)
	if !ok {
		return ErrUnknownPlayer
	}
	info := p.info()
	info.Connected = false
	s.players.remove(id)
	s.rotation.remove(id)
	s.log.Info().Str("player_id", id).Str("name", p.Name).Msg("player left")
	s.broadcast(protocol.PlayerLeft{Player: info, Purged: true})
	s.departed(id)
	return nil
}

func (s *Session) departed(id string) {
	switch s.phase {
	case PhaseWordSelection, PhaseDrawing:
		if s.round.Drawer == id {
			s.endRound(ReasonDrawerLeft)
			return
		}
		if s.phase == PhaseWordSelection {
			if s.connectedCount() < s.opts.MinPlayers {
				s.toLobby()
			}
			return
		}
		s.checkAllGuessed()
	}
}

func (s *Session) toLobby() {
	if s.phase == PhaseLobby {
		return
	}
	s.setPhase(PhaseLobby)
	s.round = nil
	s.rotation.reset()
	s.broadcast(protocol.PhaseChanged{Phase: string(PhaseLobby)})
	s.log.Info().Msg("not enough players, back to lobby")
}

// Summary is a read-only view of the session for status pages.
type Summary struct {
	Phase       Phase
	Round       int
	Cycle       int
	Drawer      string
	Hint        string
	SecondsLeft int
	Width       int
	Height      int
	Strokes     int
	Players     []protocol.PlayerInfo
	Connected   int
}

func (s *Session) Summary() Summary {
	out := Summary{
		Phase:     s.phase,
		Round:     s.rounds,
		Cycle:     s.rotation.cycle,
		Width:     s.canvas.Width(),
		Height:    s.canvas.Height(),
		Strokes:   len(s.canvas.Strokes()),
		Players:   s.players.standings(),
		Connected: s.connectedCount(),
	}
	if s.round != nil && s.phase.roundActive() {
		if p, ok := s.players.get(s.round.Drawer); ok {
			out.Drawer = p.Name
		}
		if s.phase == PhaseDrawing {
			out.Hint = s.round.hint()
			out.SecondsLeft = s.secondsLeft()
		}
	}
	return out
}
