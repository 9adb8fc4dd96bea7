package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"termibbl/internal/canvas"
	"termibbl/internal/protocol"
)

func stroke(x0, y0, x1, y1 int) protocol.Stroke {
	return protocol.Stroke{Stroke: canvas.Stroke{
		From:  canvas.Point{X: x0, Y: y0},
		To:    canvas.Point{X: x1, Y: y1},
		Color: 3,
		Tool:  canvas.ToolDraw,
	}}
}

func TestThreePlayerRoundScoresGuesserAndDrawer(t *testing.T) {
	s, clock := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	c := mustJoin(t, s, "C")
	if s.Phase() != PhaseWordSelection || s.round.Drawer != a {
		t.Fatalf("expected A to choose a word, phase=%s", s.Phase())
	}
	word := startDrawing(t, s)
	s.Drain()

	clock.advance(10 * time.Second)
	if err := s.SubmitGuess(b, "  "+strings.ToUpper(word)+" "); err != nil {
		t.Fatalf("guess: %v", err)
	}
	if err := s.SubmitGuess(b, word); err != nil {
		t.Fatalf("repeat guess: %v", err)
	}
	eff := s.Drain()
	if got := count[protocol.CorrectGuess](messagesFor(eff, c)); got != 1 {
		t.Fatalf("expected one correct guess event, got %d", got)
	}
	if len(s.round.Correct) != 1 {
		t.Fatalf("expected B in the correct set once, got %d", len(s.round.Correct))
	}
	for _, msg := range messagesFor(eff, c) {
		if chat, ok := msg.(protocol.ChatEvent); ok && strings.Contains(strings.ToLower(chat.Text), word) {
			t.Fatalf("word leaked to guesser: %#v", chat)
		}
	}
	guessPoints := score(t, s, b)
	if guessPoints <= 0 {
		t.Fatalf("expected B to score, got %d", guessPoints)
	}

	clock.advance(110 * time.Second)
	if !s.HandleTimer(TimerDrawing, s.Generation()) {
		t.Fatalf("round timer ignored")
	}
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("expected round end, got %s", s.Phase())
	}
	ended, ok := find[protocol.RoundEnded](messagesFor(s.Drain(), c))
	if !ok || ended.Reason != ReasonTimeout || ended.Word != word {
		t.Fatalf("unexpected round end %#v", ended)
	}
	if got := score(t, s, a); got != s.opts.Scoring.DrawerAward(1) || got == 0 {
		t.Fatalf("expected drawer bonus, got %d", got)
	}
	if got := score(t, s, c); got != 0 {
		t.Fatalf("expected C unchanged, got %d", got)
	}
	if got := score(t, s, b); got != guessPoints {
		t.Fatalf("guesser score changed at round end: %d -> %d", guessPoints, got)
	}
}

func TestDrawerDisconnectEndsRoundWithoutScoring(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	mustJoin(t, s, "C")
	word := startDrawing(t, s)
	if err := s.ApplyStroke(a, stroke(0, 0, 5, 0)); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	if err := s.SubmitGuess(b, word); err != nil {
		t.Fatalf("guess: %v", err)
	}
	before := map[string]int{a: score(t, s, a), b: score(t, s, b)}
	s.Drain()

	s.Disconnect(a)
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("expected round end right after drawer left, got %s", s.Phase())
	}
	ended, ok := find[protocol.RoundEnded](messagesFor(s.Drain(), b))
	if !ok || ended.Reason != ReasonDrawerLeft {
		t.Fatalf("unexpected round end %#v", ended)
	}
	if err := s.ApplyStroke(a, stroke(0, 1, 5, 1)); !errors.Is(err, ErrRoundNotActive) {
		t.Fatalf("expected round not active, got %v", err)
	}
	for id, want := range before {
		if got := score(t, s, id); got != want {
			t.Fatalf("score of %s changed from %d to %d", id, want, got)
		}
	}
}

func TestLateJoinerReceivesCurrentCanvas(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	mustJoin(t, s, "B")
	startDrawing(t, s)
	for i := 0; i < 5; i++ {
		if err := s.ApplyStroke(a, stroke(i, i, 19-i, 9-i)); err != nil {
			t.Fatalf("stroke %d: %v", i, err)
		}
	}
	s.Drain()

	d := mustJoin(t, s, "D")
	welcome, ok := find[protocol.Welcome](messagesFor(s.Drain(), d))
	if !ok {
		t.Fatalf("late joiner got no welcome")
	}
	cells, err := welcome.Canvas.Cells()
	if err != nil {
		t.Fatalf("snapshot cells: %v", err)
	}
	if diff := cmp.Diff(s.Canvas().Grid(), cells); diff != "" {
		t.Fatalf("snapshot mismatch (-server +welcome):\n%s", diff)
	}
	if welcome.Word != "" {
		t.Fatalf("welcome leaked the word to a guesser")
	}
	if welcome.Hint == "" || welcome.Drawer != a {
		t.Fatalf("expected hint and drawer in welcome, got %#v", welcome)
	}
}

func TestRejectedActionsReportToSenderOnly(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")

	if err := s.ApplyStroke(a, stroke(0, 0, 1, 1)); !errors.Is(err, ErrRoundNotActive) {
		t.Fatalf("expected round not active before drawing, got %v", err)
	}
	if err := s.SelectWord(b, 0); !errors.Is(err, ErrInvalidTurnAction) {
		t.Fatalf("expected invalid turn action for non-drawer, got %v", err)
	}
	if err := s.SelectWord(a, 99); !errors.Is(err, ErrInvalidTurnAction) {
		t.Fatalf("expected invalid turn action for bad index, got %v", err)
	}
	startDrawing(t, s)
	s.Drain()

	if err := s.ApplyStroke(b, stroke(0, 0, 1, 1)); !errors.Is(err, ErrNotDrawer) {
		t.Fatalf("expected not drawer, got %v", err)
	}
	if err := s.ApplyStroke(a, stroke(0, 0, 50, 1)); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected out of bounds, got %v", err)
	}
	if err := s.ClearCanvas(b); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected not your turn, got %v", err)
	}
	if err := s.SelectWord(a, 0); !errors.Is(err, ErrInvalidTurnAction) {
		t.Fatalf("expected invalid turn action while drawing, got %v", err)
	}
	if err := s.StartRound(); !errors.Is(err, ErrInvalidTurnAction) {
		t.Fatalf("expected invalid turn action starting mid-round, got %v", err)
	}
	if eff := s.Drain(); len(eff.Deliveries) != 0 {
		t.Fatalf("rejected actions must not broadcast, got %d deliveries", len(eff.Deliveries))
	}
}

func TestNoopStrokeIsNotBroadcast(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	mustJoin(t, s, "B")
	startDrawing(t, s)
	if err := s.ApplyStroke(a, stroke(2, 2, 2, 2)); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	s.Drain()
	if err := s.ApplyStroke(a, stroke(2, 2, 2, 2)); err != nil {
		t.Fatalf("repeat stroke: %v", err)
	}
	if eff := s.Drain(); len(eff.Deliveries) != 0 {
		t.Fatalf("no-op stroke was broadcast")
	}
	if got := len(s.Canvas().Strokes()); got != 1 {
		t.Fatalf("expected one recorded stroke, got %d", got)
	}
}

func TestJoinFailures(t *testing.T) {
	s, _ := newTestSession(t, func(o *Options) { o.MaxPlayers = 2 })
	mustJoin(t, s, "Ada")
	if _, err := s.Join("ada"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected name taken, got %v", err)
	}
	if _, err := s.Join("<bad>"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	mustJoin(t, s, "Bob")
	if _, err := s.Join("Cy"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected session full, got %v", err)
	}
}

func TestRejoinKeepsIDAndScore(t *testing.T) {
	s, _ := newTestSession(t, nil)
	mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	mustJoin(t, s, "C")
	word := startDrawing(t, s)
	if err := s.SubmitGuess(b, word); err != nil {
		t.Fatalf("guess: %v", err)
	}
	points := score(t, s, b)
	s.Disconnect(b)
	s.Drain()

	again := mustJoin(t, s, "b")
	if again != b {
		t.Fatalf("rejoin got new id %s, want %s", again, b)
	}
	if got := score(t, s, b); got != points {
		t.Fatalf("rejoin lost score: %d, want %d", got, points)
	}
	eff := s.Drain()
	welcome, _ := find[protocol.Welcome](messagesFor(eff, b))
	if welcome.Word != word {
		t.Fatalf("player who already guessed should see the word on rejoin")
	}
	for _, id := range s.players.connected() {
		if id == b {
			continue
		}
		joined, ok := find[protocol.PlayerJoined](messagesFor(eff, id))
		if !ok || !joined.Rejoined {
			t.Fatalf("expected rejoin notice for %s", id)
		}
	}
}

func TestLeavePurgesPlayer(t *testing.T) {
	s, _ := newTestSession(t, nil)
	mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	startDrawing(t, s)
	if err := s.Leave(b); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, ok := s.Player(b); ok {
		t.Fatalf("player still registered after leave")
	}
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("expected round end with no guessers left, got %s", s.Phase())
	}
	ended, _ := find[protocol.RoundEnded](messagesFor(s.Drain(), s.round.Drawer))
	if ended.Reason != ReasonNotEnoughPlayers {
		t.Fatalf("expected not enough players, got %q", ended.Reason)
	}
	s.HandleTimer(TimerNextRound, s.Generation())
	if s.Phase() != PhaseLobby {
		t.Fatalf("expected lobby, got %s", s.Phase())
	}
	if _, ok := find[protocol.PhaseChanged](messagesFor(s.Drain(), onlyConnected(t, s))); !ok {
		t.Fatalf("expected phase change broadcast")
	}
}

func onlyConnected(t *testing.T, s *Session) string {
	t.Helper()
	connected := s.players.connected()
	if len(connected) != 1 {
		t.Fatalf("expected one connected player, got %d", len(connected))
	}
	return connected[0]
}

func TestAllGuessedEndsRoundEarly(t *testing.T) {
	s, _ := newTestSession(t, nil)
	mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	c := mustJoin(t, s, "C")
	word := startDrawing(t, s)
	_ = s.SubmitGuess(b, word)
	if s.Phase() != PhaseDrawing {
		t.Fatalf("round ended before everyone guessed")
	}
	_ = s.SubmitGuess(c, word)
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("expected round end, got %s", s.Phase())
	}
	if s.round.Correct[0].Points < s.round.Correct[1].Points {
		t.Fatalf("first guesser scored less than second")
	}
}

func TestSequenceNumbersIncrease(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	mustJoin(t, s, "B")
	startDrawing(t, s)
	_ = s.ApplyStroke(a, stroke(0, 0, 3, 3))
	_ = s.ClearCanvas(a)
	var last uint64
	for _, d := range s.Drain().Deliveries {
		if d.Seq <= last {
			t.Fatalf("seq %d after %d", d.Seq, last)
		}
		last = d.Seq
	}
}

func TestApplyDispatchesEveryMessage(t *testing.T) {
	s, _ := newTestSession(t, nil)
	a := mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	if err := s.Apply(a, protocol.SelectWord{Index: 0}); err != nil {
		t.Fatalf("select word: %v", err)
	}
	if err := s.Apply(a, stroke(0, 0, 4, 0)); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	if err := s.Apply(a, protocol.ClearCanvas{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Apply(b, protocol.ChatOrGuess{Text: "hello"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if err := s.Apply(b, protocol.Ping{}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Apply(b, protocol.Join{Username: "again"}); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected protocol error for second join, got %v", err)
	}
	if err := s.Apply(b, protocol.Leave{}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := s.Apply(b, protocol.Ping{}); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("expected unknown player after leave, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	s, clock := newTestSession(t, nil)
	mustJoin(t, s, "A")
	b := mustJoin(t, s, "B")
	word := startDrawing(t, s)
	clock.advance(30 * time.Second)
	_ = s.SubmitGuess(b, word)

	sum := s.Summary()
	if sum.Phase != PhaseRoundEnd || sum.Round != 1 || sum.Connected != 2 {
		t.Fatalf("unexpected summary %#v", sum)
	}
	if sum.Players[0].ID != b {
		t.Fatalf("expected top scorer first, got %#v", sum.Players)
	}
}
