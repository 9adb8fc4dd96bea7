package game

import "termibbl/internal/protocol"

type TimerKind string

const (
	TimerWordSelection TimerKind = "word_selection"
	TimerDrawing       TimerKind = "drawing"
	TimerHint          TimerKind = "hint"
	TimerNextRound     TimerKind = "next_round"
)

// HandleTimer applies an expired timer. Timers armed for an earlier
// generation are ignored and HandleTimer reports false.
func (s *Session) HandleTimer(kind TimerKind, generation uint64) bool {
	if generation != s.generation {
		return false
	}
	switch kind {
	case TimerWordSelection:
		if s.phase != PhaseWordSelection || len(s.round.Candidates) == 0 {
			return false
		}
		s.log.Info().Int("round", s.round.Number).Msg("word selection timed out")
		s.beginDrawing(s.round.Candidates[0])
	case TimerDrawing:
		if s.phase != PhaseDrawing {
			return false
		}
		s.endRound(ReasonTimeout)
	case TimerHint:
		if s.phase != PhaseDrawing {
			return false
		}
		s.revealHint()
	case TimerNextRound:
		if s.phase != PhaseRoundEnd && s.phase != PhaseGameOver {
			return false
		}
		if err := s.StartRound(); err != nil {
			s.log.Error().Err(err).Msg("auto-advance failed")
			return false
		}
	default:
		return false
	}
	return true
}

func (s *Session) revealHint() {
	hidden := s.round.hidden()
	if len(hidden) == 0 || s.round.revealedCount() >= s.round.maxReveals() {
		return
	}
	s.round.revealed[hidden[s.opts.Rand.IntN(len(hidden))]] = true
	s.emit(s.guessers(), protocol.WordHint{Hint: s.round.hint()})
	if s.round.revealedCount() < s.round.maxReveals() {
		s.arm(TimerHint, s.opts.Hint)
	}
}
