package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"termibbl/internal/protocol"
	"termibbl/internal/words"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(t *testing.T, configure func(*Options)) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rng := rand.New(rand.NewPCG(1, 2))
	bank, err := words.New([]string{"giraffe", "pizza", "rainbow", "castle", "lighthouse"}, 2, rng)
	if err != nil {
		t.Fatalf("word bank: %v", err)
	}
	next := 0
	opts := DefaultOptions()
	opts.Width, opts.Height = 20, 10
	opts.Words = bank
	opts.Now = clock.Now
	opts.Rand = rng
	opts.NewID = func() string {
		next++
		return fmt.Sprintf("p%d", next)
	}
	if configure != nil {
		configure(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, clock
}

func mustJoin(t *testing.T, s *Session, name string) string {
	t.Helper()
	id, err := s.Join(name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return id
}

// messagesFor returns the messages delivered to one player, in order.
func messagesFor(eff Effects, id string) []protocol.ServerMessage {
	var out []protocol.ServerMessage
	for _, d := range eff.Deliveries {
		for _, to := range d.To {
			if to == id {
				out = append(out, d.Message)
				break
			}
		}
	}
	return out
}

func find[T protocol.ServerMessage](msgs []protocol.ServerMessage) (T, bool) {
	for _, msg := range msgs {
		if m, ok := msg.(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

func count[T protocol.ServerMessage](msgs []protocol.ServerMessage) int {
	n := 0
	for _, msg := range msgs {
		if _, ok := msg.(T); ok {
			n++
		}
	}
	return n
}

// startDrawing picks the first candidate for the current drawer.
func startDrawing(t *testing.T, s *Session) string {
	t.Helper()
	if s.Phase() != PhaseWordSelection {
		t.Fatalf("expected word selection, got %s", s.Phase())
	}
	if err := s.SelectWord(s.round.Drawer, 0); err != nil {
		t.Fatalf("select word: %v", err)
	}
	return s.round.Word
}

// nextRound runs the current round out on timers and returns the next drawer.
func nextRound(t *testing.T, s *Session) string {
	t.Helper()
	if s.Phase() == PhaseWordSelection {
		s.HandleTimer(TimerWordSelection, s.Generation())
	}
	if s.Phase() == PhaseDrawing {
		s.HandleTimer(TimerDrawing, s.Generation())
	}
	if !s.HandleTimer(TimerNextRound, s.Generation()) {
		t.Fatalf("next round timer ignored in %s", s.Phase())
	}
	if s.Phase() != PhaseWordSelection {
		return ""
	}
	return s.round.Drawer
}

func score(t *testing.T, s *Session, id string) int {
	t.Helper()
	p, ok := s.Player(id)
	if !ok {
		t.Fatalf("unknown player %s", id)
	}
	return p.Score
}
