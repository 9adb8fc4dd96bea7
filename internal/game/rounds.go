package game

import (
	"errors"
	"math"
	"time"
	"unicode"

	"termibbl/internal/canvas"
	"termibbl/internal/protocol"
)

// End reasons carried by RoundEnded.
const (
	ReasonTimeout          = "timeout"
	ReasonAllGuessed       = "all_guessed"
	ReasonDrawerLeft       = "drawer_left"
	ReasonNotEnoughPlayers = "not_enough_players"
)

type Guess struct {
	PlayerID string
	Points   int
	Elapsed  time.Duration
}

type Round struct {
	Number     int
	Drawer     string
	Candidates []string
	Word       string
	StartedAt  time.Time
	Duration   time.Duration
	Correct    []Guess
	revealed   []bool
}

func (r *Round) solved(id string) bool {
	for _, g := range r.Correct {
		if g.PlayerID == id {
			return true
		}
	}
	return false
}

// hint redacts every unrevealed letter of the word.
func (r *Round) hint() string {
	out := []rune(r.Word)
	for i, ch := range out {
		if unicode.IsLetter(ch) && !r.revealed[i] {
			out[i] = '_'
		}
	}
	return string(out)
}

// hidden returns the positions of letters not yet revealed.
func (r *Round) hidden() []int {
	var out []int
	for i, ch := range []rune(r.Word) {
		if unicode.IsLetter(ch) && !r.revealed[i] {
			out = append(out, i)
		}
	}
	return out
}

func (r *Round) maxReveals() int {
	letters := 0
	for _, ch := range r.Word {
		if unicode.IsLetter(ch) {
			letters++
		}
	}
	return letters / 2
}

func (r *Round) revealedCount() int {
	n := 0
	for _, ok := range r.revealed {
		if ok {
			n++
		}
	}
	return n
}

// StartRound hands the turn to the next drawer in rotation and offers them
// word candidates.
func (s *Session) StartRound() error {
	if !s.phase.canStartRound() {
		return fail(protocol.KindInvalidTurnAction, "cannot start a round during %s", s.phase)
	}
	connected := s.players.connected()
	if len(connected) < s.opts.MinPlayers {
		s.toLobby()
		return nil
	}
	drawer, ok := s.rotation.next(s.players.isConnected)
	if !ok {
		if s.opts.Rounds > 0 && s.rotation.cycle >= s.opts.Rounds {
			s.gameOver()
			return nil
		}
		s.rotation.startCycle(connected)
		drawer, ok = s.rotation.next(s.players.isConnected)
		if !ok {
			s.toLobby()
			return nil
		}
	}

	s.setPhase(PhaseWordSelection)
	s.rounds++
	s.round = &Round{
		Number:     s.rounds,
		Drawer:     drawer,
		Candidates: s.opts.Words.Candidates(s.opts.WordChoices),
	}
	seconds := durationSeconds(s.opts.WordSelect)
	p, _ := s.players.get(drawer)
	s.sendTo(drawer, protocol.WordChoices{Candidates: s.round.Candidates, Seconds: seconds})
	s.broadcastExcept(drawer, protocol.ChoosingWord{Drawer: drawer, Name: p.Name, Seconds: seconds})
	s.arm(TimerWordSelection, s.opts.WordSelect)
	s.log.Info().Int("round", s.rounds).Int("cycle", s.rotation.cycle).Str("drawer", p.Name).Msg("round started")
	return nil
}

// SelectWord picks one of the offered candidates and starts drawing.
func (s *Session) SelectWord(player string, index int) error {
	if s.phase != PhaseWordSelection {
		return fail(protocol.KindInvalidTurnAction, "no word to choose during %s", s.phase)
	}
	if player != s.round.Drawer {
		return fail(protocol.KindInvalidTurnAction, "only the drawer chooses the word")
	}
	if index < 0 || index >= len(s.round.Candidates) {
		return fail(protocol.KindInvalidTurnAction, "word index %d out of range", index)
	}
	s.beginDrawing(s.round.Candidates[index])
	return nil
}

func (s *Session) beginDrawing(word string) {
	s.opts.Words.Use(word)
	s.round.Word = word
	s.round.revealed = make([]bool, len([]rune(word)))
	s.round.StartedAt = s.opts.Now()
	s.round.Duration = s.opts.Draw
	s.canvas.Clear()
	s.setPhase(PhaseDrawing)

	s.broadcast(protocol.CanvasCleared{})
	p, _ := s.players.get(s.round.Drawer)
	started := protocol.RoundStarted{
		Round:      s.round.Number,
		Drawer:     s.round.Drawer,
		Name:       p.Name,
		WordLength: len([]rune(word)),
		Hint:       s.round.hint(),
		Seconds:    durationSeconds(s.round.Duration),
	}
	s.broadcastExcept(s.round.Drawer, started)
	started.Word = word
	s.sendTo(s.round.Drawer, started)

	s.arm(TimerDrawing, s.round.Duration)
	if s.opts.Hint > 0 && s.round.maxReveals() > 0 {
		s.arm(TimerHint, s.opts.Hint)
	}
	s.log.Debug().Int("round", s.round.Number).Str("drawer", p.Name).Msg("drawing started")
}

// endRound closes the active round. The drawer bonus is skipped when the
// drawer is the reason the round ended.
func (s *Session) endRound(reason string) {
	if !s.phase.roundActive() {
		return
	}
	awarded := make(map[string]int, len(s.round.Correct)+1)
	for _, g := range s.round.Correct {
		awarded[g.PlayerID] = g.Points
	}
	if reason != ReasonDrawerLeft {
		if drawer, ok := s.players.get(s.round.Drawer); ok {
			if bonus := s.opts.Scoring.DrawerAward(len(s.round.Correct)); bonus > 0 {
				drawer.Score += bonus
				awarded[drawer.ID] = bonus
			}
		}
	}
	s.setPhase(PhaseRoundEnd)
	s.broadcast(protocol.RoundEnded{
		Word:    s.round.Word,
		Reason:  reason,
		Scores:  s.players.infos(),
		Awarded: awarded,
	})
	s.arm(TimerNextRound, s.opts.RoundEnd)
	s.log.Info().Int("round", s.round.Number).Str("reason", reason).Int("correct", len(s.round.Correct)).Msg("round ended")
}

func (s *Session) gameOver() {
	cycles := s.rotation.cycle
	s.setPhase(PhaseGameOver)
	s.round = nil
	s.rotation.reset()
	s.broadcast(protocol.GameOver{Standings: s.players.standings()})
	s.arm(TimerNextRound, s.opts.RoundEnd)
	s.log.Info().Int("cycles", cycles).Msg("game over")
}

// checkAllGuessed ends the round once every connected guesser has the word.
func (s *Session) checkAllGuessed() {
	if s.phase != PhaseDrawing {
		return
	}
	guessers := 0
	for _, id := range s.players.connected() {
		if id == s.round.Drawer {
			continue
		}
		guessers++
		if !s.round.solved(id) {
			return
		}
	}
	if guessers == 0 {
		s.endRound(ReasonNotEnoughPlayers)
		return
	}
	s.endRound(ReasonAllGuessed)
}

func (s *Session) elapsed() time.Duration {
	if s.round == nil {
		return 0
	}
	return s.opts.Now().Sub(s.round.StartedAt)
}

func (s *Session) secondsLeft() int {
	left := s.round.Duration - s.elapsed()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func durationSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// ApplyStroke applies the drawer's stroke and broadcasts it. Strokes that
// change nothing are not broadcast.
func (s *Session) ApplyStroke(player string, stroke protocol.Stroke) error {
	if s.phase != PhaseDrawing {
		return fail(protocol.KindRoundNotActive, "no drawing during %s", s.phase)
	}
	if player != s.round.Drawer {
		return fail(protocol.KindNotDrawer, "only the drawer can draw")
	}
	diff, err := s.canvas.ApplyStroke(stroke.Stroke)
	if err != nil {
		if errors.Is(err, canvas.ErrOutOfBounds) {
			return &Error{Kind: protocol.KindOutOfBounds, Detail: err.Error()}
		}
		return &Error{Kind: protocol.KindProtocolError, Detail: err.Error()}
	}
	if diff.Empty() {
		return nil
	}
	s.broadcast(protocol.StrokeApplied{Drawer: player, Stroke: stroke.Stroke})
	return nil
}

func (s *Session) ClearCanvas(player string) error {
	if s.phase != PhaseDrawing {
		return fail(protocol.KindRoundNotActive, "no drawing during %s", s.phase)
	}
	if player != s.round.Drawer {
		return fail(protocol.KindNotYourTurn, "only the drawer can clear the canvas")
	}
	s.canvas.Clear()
	s.broadcast(protocol.CanvasCleared{})
	return nil
}
