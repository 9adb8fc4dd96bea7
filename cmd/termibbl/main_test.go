package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"termibbl/internal/canvas"
	"termibbl/internal/config"
	"termibbl/internal/protocol"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want protocol.ClientMessage
	}{
		{"is it a cat", protocol.ChatOrGuess{Text: "is it a cat"}},
		{"/pick 2", protocol.SelectWord{Index: 1}},
		{"/clear", protocol.ClearCanvas{}},
		{"/leave", protocol.Leave{}},
		{"/line 1 2 3 4", protocol.Stroke{Stroke: canvas.Stroke{
			From: canvas.Point{X: 1, Y: 2}, To: canvas.Point{X: 3, Y: 4}, Color: 1, Tool: canvas.ToolDraw,
		}}},
		{"/line 0 0 5 0 7", protocol.Stroke{Stroke: canvas.Stroke{
			To: canvas.Point{X: 5}, Color: 7, Tool: canvas.ToolDraw,
		}}},
		{"/erase 0 0 5 0", protocol.Stroke{Stroke: canvas.Stroke{
			To: canvas.Point{X: 5}, Tool: canvas.ToolErase,
		}}},
	}
	for _, tc := range cases {
		got, err := parseCommand(tc.line)
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, line := range []string{"/pick", "/pick 0", "/pick x", "/line 1 2 3", "/line 1 2 3 4 99", "/erase 1 2 3 4 5", "/dance"} {
		if _, err := parseCommand(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}
}

func TestApplyFlagsOverridesOnlyGivenFlags(t *testing.T) {
	f, set, err := parseServerFlags([]string{"--port", "7000", "--dimensions", "60x20", "--debug"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	base := config.Default()
	base.Rounds = 5
	cfg, err := applyFlags(base, f, set)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Port != 7000 || cfg.Width != 60 || cfg.Height != 20 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Rounds != 5 {
		t.Fatalf("rounds overridden without a flag: %d", cfg.Rounds)
	}

	f, set, _ = parseServerFlags([]string{"--dimensions", "wide"})
	if _, err := applyFlags(config.Default(), f, set); err == nil {
		t.Fatalf("expected bad dimensions to fail")
	}
}

func TestViewTracksCanvasAndScores(t *testing.T) {
	board, _ := canvas.New(4, 2)
	board.ApplyStroke(canvas.Stroke{From: canvas.Point{X: 0, Y: 1}, To: canvas.Point{X: 1, Y: 1}, Color: 2, Tool: canvas.ToolDraw})
	v, err := newView(protocol.Welcome{
		PlayerID: "p2",
		Canvas:   board.Snapshot(),
		Players: []protocol.PlayerInfo{
			{ID: "p1", Name: "ada", Connected: true},
			{ID: "p2", Name: "bob", Connected: true},
		},
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if diff := cmp.Diff(board.Grid(), v.board.Grid()); diff != "" {
		t.Fatalf("snapshot not restored (-want +got):\n%s", diff)
	}

	v.apply(protocol.StrokeApplied{Drawer: "p1", Stroke: canvas.Stroke{From: canvas.Point{X: 3, Y: 0}, To: canvas.Point{X: 3, Y: 0}, Color: 1, Tool: canvas.ToolDraw}})
	want := "+----+\n|   #|\n|**  |\n+----+\n"
	if got := v.render(); got != want {
		t.Fatalf("render:\n%s\nwant:\n%s", got, want)
	}

	if out := v.apply(protocol.CorrectGuess{SenderID: "p2", Name: "bob", Points: 300}); !strings.Contains(out, "you guessed") {
		t.Fatalf("unexpected line %q", out)
	}
	v.apply(protocol.ScoreUpdate{Scores: []protocol.PlayerInfo{{ID: "p2", Name: "bob", Score: 300, Connected: true}}})
	board2 := v.scoreboard()
	if !strings.HasPrefix(strings.TrimLeft(board2, " "), "1.") || strings.Index(board2, "bob") > strings.Index(board2, "ada") {
		t.Fatalf("bob should lead:\n%s", board2)
	}

	v.apply(protocol.CanvasCleared{})
	for _, c := range v.board.Grid() {
		if c != canvas.Empty {
			t.Fatalf("canvas not cleared")
		}
	}
}
