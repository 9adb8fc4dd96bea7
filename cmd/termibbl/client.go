package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"termibbl/internal/canvas"
	"termibbl/internal/client"
	"termibbl/internal/protocol"
)

var errQuit = errors.New("quit")

const clientHelp = `commands:
  /pick N                      choose word N while you pick
  /line x0 y0 x1 y1 [color]    draw a line (color 1-16, default 1)
  /erase x0 y0 x1 y1           erase a line
  /clear                       clear the canvas
  /show                        print the canvas
  /scores                      print the scoreboard
  /leave                       leave the game
  anything else is sent as chat or a guess
`

func runClient(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	address := fs.String("address", "", "server host:port, empty to discover one on the LAN")
	discover := fs.Duration("discover", 3*time.Second, "how long to browse for servers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("client: expected exactly one username")
	}
	addr := *address
	if addr == "" {
		found, err := client.Discover(ctx, *discover)
		if err != nil && len(found) == 0 {
			return err
		}
		if len(found) == 0 {
			return errors.New("client: no servers found on the LAN, pass --address")
		}
		addr = found[0]
		fmt.Printf("found server at %s\n", addr)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := client.Dial(dialCtx, addr, fs.Arg(0))
	cancel()
	if err != nil {
		return err
	}
	defer c.Close()

	v, err := newView(c.Welcome())
	if err != nil {
		return err
	}
	fmt.Print(v.welcome(c.Welcome()))
	fmt.Print(clientHelp)

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			_ = c.Send(protocol.Leave{})
			return ctx.Err()
		case msg, ok := <-c.Events():
			if !ok {
				if err := c.Err(); err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("connection lost: %w", err)
				}
				fmt.Println("server closed the connection")
				return nil
			}
			if out := v.apply(msg); out != "" {
				fmt.Println(out)
			}
		case line, ok := <-lines:
			if !ok {
				_ = c.Send(protocol.Leave{})
				return nil
			}
			if err := v.command(c, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Println(err)
			}
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

type sender interface {
	Send(protocol.ClientMessage) error
}

func (v *view) command(s sender, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	switch line {
	case "/show":
		fmt.Print(v.render())
		return nil
	case "/scores":
		fmt.Print(v.scoreboard())
		return nil
	case "/help":
		fmt.Print(clientHelp)
		return nil
	}
	msg, err := parseCommand(line)
	if err != nil {
		return err
	}
	if err := s.Send(msg); err != nil {
		return err
	}
	if _, ok := msg.(protocol.Leave); ok {
		return errQuit
	}
	return nil
}

// parseCommand turns one input line into a client message.
func parseCommand(line string) (protocol.ClientMessage, error) {
	if !strings.HasPrefix(line, "/") {
		return protocol.ChatOrGuess{Text: line}, nil
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "/pick":
		if len(fields) != 2 {
			return nil, errors.New("usage: /pick N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad choice %q", fields[1])
		}
		return protocol.SelectWord{Index: n - 1}, nil
	case "/line", "/erase":
		tool := canvas.ToolDraw
		if fields[0] == "/erase" {
			tool = canvas.ToolErase
		}
		return parseStroke(fields[1:], tool)
	case "/clear":
		return protocol.ClearCanvas{}, nil
	case "/leave", "/quit":
		return protocol.Leave{}, nil
	}
	return nil, fmt.Errorf("unknown command %s", fields[0])
}

func parseStroke(args []string, tool canvas.Tool) (protocol.ClientMessage, error) {
	if len(args) != 4 && !(tool == canvas.ToolDraw && len(args) == 5) {
		return nil, errors.New("usage: /line x0 y0 x1 y1 [color]")
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		nums[i] = n
	}
	stroke := canvas.Stroke{
		From: canvas.Point{X: nums[0], Y: nums[1]},
		To:   canvas.Point{X: nums[2], Y: nums[3]},
		Tool: tool,
	}
	if tool == canvas.ToolDraw {
		stroke.Color = 1
		if len(nums) == 5 {
			if nums[4] < 1 || nums[4] > canvas.PaletteSize {
				return nil, fmt.Errorf("color must be 1-%d", canvas.PaletteSize)
			}
			stroke.Color = canvas.Color(nums[4])
		}
	}
	return protocol.Stroke{Stroke: stroke}, nil
}

// view mirrors the session state the server has told us about.
type view struct {
	self    string
	board   *canvas.Canvas
	players map[string]protocol.PlayerInfo
	drawer  string
}

func newView(w protocol.Welcome) (*view, error) {
	cells, err := w.Canvas.Cells()
	if err != nil {
		return nil, err
	}
	board, err := canvas.New(w.Canvas.Width, w.Canvas.Height)
	if err != nil {
		return nil, err
	}
	// Replay the snapshot one cell at a time.
	for i, c := range cells {
		if c == canvas.Empty {
			continue
		}
		p := canvas.Point{X: i % w.Canvas.Width, Y: i / w.Canvas.Width}
		if _, err := board.ApplyStroke(canvas.Stroke{From: p, To: p, Color: c, Tool: canvas.ToolDraw}); err != nil {
			return nil, err
		}
	}
	v := &view{self: w.PlayerID, board: board, players: make(map[string]protocol.PlayerInfo), drawer: w.Drawer}
	v.setScores(w.Players)
	return v, nil
}

func (v *view) setScores(players []protocol.PlayerInfo) {
	for _, p := range players {
		v.players[p.ID] = p
	}
}

func (v *view) name(id string) string {
	if p, ok := v.players[id]; ok {
		return p.Name
	}
	return id
}

func (v *view) welcome(w protocol.Welcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "joined as %s, %d players, phase %s\n", v.name(w.PlayerID), len(w.Players), w.Phase)
	if w.Drawer != "" {
		fmt.Fprintf(&b, "%s is drawing", v.name(w.Drawer))
		if w.Hint != "" {
			fmt.Fprintf(&b, ": %s", w.Hint)
		}
		if w.SecondsLeft > 0 {
			fmt.Fprintf(&b, " (%ds left)", w.SecondsLeft)
		}
		b.WriteByte('\n')
	}
	for _, line := range w.Chat {
		if line.CorrectGuess {
			fmt.Fprintf(&b, "* %s guessed the word\n", line.Name)
			continue
		}
		fmt.Fprintf(&b, "<%s> %s\n", line.Name, line.Text)
	}
	return b.String()
}

// apply updates local state and returns the line to print, if any.
func (v *view) apply(msg protocol.ServerMessage) string {
	switch m := msg.(type) {
	case protocol.StrokeApplied:
		_, _ = v.board.ApplyStroke(m.Stroke)
		return ""
	case protocol.CanvasCleared:
		v.board.Clear()
		return ""
	case protocol.ChatEvent:
		return fmt.Sprintf("<%s> %s", m.Name, m.Text)
	case protocol.CorrectGuess:
		if m.SenderID == v.self {
			return fmt.Sprintf("* you guessed it! +%d", m.Points)
		}
		return fmt.Sprintf("* %s guessed the word (+%d)", m.Name, m.Points)
	case protocol.ChoosingWord:
		v.drawer = m.Drawer
		return fmt.Sprintf("* %s is choosing a word (%ds)", m.Name, m.Seconds)
	case protocol.WordChoices:
		parts := make([]string, len(m.Candidates))
		for i, w := range m.Candidates {
			parts[i] = fmt.Sprintf("%d) %s", i+1, w)
		}
		return fmt.Sprintf("* your turn, /pick one within %ds: %s", m.Seconds, strings.Join(parts, "  "))
	case protocol.RoundStarted:
		v.drawer = m.Drawer
		if m.Word != "" {
			return fmt.Sprintf("* round %d: draw %q (%ds), canvas %dx%d", m.Round, m.Word, m.Seconds, v.board.Width(), v.board.Height())
		}
		return fmt.Sprintf("* round %d: %s is drawing %s (%d letters, %ds)", m.Round, m.Name, m.Hint, m.WordLength, m.Seconds)
	case protocol.WordHint:
		return "* hint: " + m.Hint
	case protocol.RoundEnded:
		v.setScores(m.Scores)
		return fmt.Sprintf("* round over (%s), the word was %q", m.Reason, m.Word)
	case protocol.ScoreUpdate:
		v.setScores(m.Scores)
		return ""
	case protocol.PlayerJoined:
		v.players[m.Player.ID] = m.Player
		if m.Rejoined {
			return fmt.Sprintf("* %s is back", m.Player.Name)
		}
		return fmt.Sprintf("* %s joined", m.Player.Name)
	case protocol.PlayerLeft:
		if m.Purged {
			delete(v.players, m.Player.ID)
			return fmt.Sprintf("* %s left", m.Player.Name)
		}
		v.players[m.Player.ID] = m.Player
		return fmt.Sprintf("* %s disconnected", m.Player.Name)
	case protocol.PhaseChanged:
		return "* phase: " + m.Phase
	case protocol.GameOver:
		v.setScores(m.Standings)
		return "* game over\n" + v.scoreboard()
	case protocol.Notice:
		return "! " + m.Text
	case protocol.Error:
		if m.Detail != "" {
			return fmt.Sprintf("! %s: %s", m.Kind, m.Detail)
		}
		return "! " + string(m.Kind)
	}
	return ""
}

func (v *view) scoreboard() string {
	players := make([]protocol.PlayerInfo, 0, len(v.players))
	for _, p := range v.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Name < players[j].Name
	})
	var b strings.Builder
	for i, p := range players {
		marker := " "
		if p.ID == v.drawer {
			marker = "✎"
		}
		status := ""
		if !p.Connected {
			status = " (away)"
		}
		fmt.Fprintf(&b, "%2d. %s %-20s %6d%s\n", i+1, marker, p.Name, p.Score, status)
	}
	return b.String()
}

const palette = " #*+=%@&$ox~:;-.^"

// render draws the canvas as text, one glyph per palette color.
func (v *view) render() string {
	w := v.board.Width()
	grid := v.board.Grid()
	var b strings.Builder
	b.WriteString("+" + strings.Repeat("-", w) + "+\n")
	for y := 0; y < v.board.Height(); y++ {
		b.WriteByte('|')
		for _, c := range grid[y*w : (y+1)*w] {
			b.WriteByte(palette[c])
		}
		b.WriteString("|\n")
	}
	b.WriteString("+" + strings.Repeat("-", w) + "+\n")
	return b.String()
}
