package game

import "fmt"

type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseWordSelection Phase = "word_selection"
	PhaseDrawing       Phase = "drawing"
	PhaseRoundEnd      Phase = "round_end"
	PhaseGameOver      Phase = "game_over"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:         {PhaseWordSelection},
	PhaseWordSelection: {PhaseDrawing, PhaseRoundEnd, PhaseLobby},
	PhaseDrawing:       {PhaseRoundEnd},
	PhaseRoundEnd:      {PhaseWordSelection, PhaseGameOver, PhaseLobby},
	PhaseGameOver:      {PhaseWordSelection, PhaseLobby},
}

func canTransition(from, to Phase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// setPhase moves to the next phase and bumps the generation, invalidating
// every timer armed for the previous phase.
func (s *Session) setPhase(to Phase) {
	if !canTransition(s.phase, to) {
		panic(fmt.Sprintf("game: illegal phase transition %s -> %s", s.phase, to))
	}
	s.log.Debug().Str("from", string(s.phase)).Str("to", string(to)).Msg("phase changed")
	s.phase = to
	s.generation++
}

// roundActive reports whether a drawer currently holds the turn.
func (p Phase) roundActive() bool {
	return p == PhaseWordSelection || p == PhaseDrawing
}

// canStartRound reports whether StartRound is legal from p.
func (p Phase) canStartRound() bool {
	return p == PhaseLobby || p == PhaseRoundEnd || p == PhaseGameOver
}
