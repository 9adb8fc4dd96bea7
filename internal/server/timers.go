package server

import (
	"time"

	"termibbl/internal/game"
)

// schedule arms a timer that posts back into the loop. Only the loop calls it.
func (s *Server) schedule(req game.TimerRequest) {
	if existing, ok := s.timers[req.Kind]; ok {
		existing.Stop()
	}
	if req.After <= 0 {
		delete(s.timers, req.Kind)
		go s.post(timerFired{kind: req.Kind, generation: req.Generation})
		return
	}
	s.timers[req.Kind] = time.AfterFunc(req.After, func() {
		s.post(timerFired{kind: req.Kind, generation: req.Generation})
	})
}

func (s *Server) stopTimers() {
	for kind, timer := range s.timers {
		timer.Stop()
		delete(s.timers, kind)
	}
}
