package protocol

import (
	"time"

	"termibbl/internal/canvas"
)

// Wire type names.
const (
	TypeJoin        = "join"
	TypeStroke      = "stroke"
	TypeClearCanvas = "clear_canvas"
	TypeChatOrGuess = "chat"
	TypeSelectWord  = "select_word"
	TypeLeave       = "leave"
	TypePing        = "ping"

	TypeWelcome       = "welcome"
	TypeStrokeApplied = "stroke_applied"
	TypeCanvasCleared = "canvas_cleared"
	TypeChatEvent     = "chat_event"
	TypeCorrectGuess  = "correct_guess"
	TypeChoosingWord  = "choosing_word"
	TypeWordChoices   = "word_choices"
	TypeRoundStarted  = "round_started"
	TypeWordHint      = "word_hint"
	TypeRoundEnded    = "round_ended"
	TypeScoreUpdate   = "score_update"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypePhaseChanged  = "phase_changed"
	TypeGameOver      = "game_over"
	TypeNotice        = "notice"
	TypeError         = "error"
)

// ClientMessage is the closed set of messages a client may send. Dispatch
// calls the handler method for the concrete kind, so every ClientHandler must
// handle every kind.
type ClientMessage interface {
	Type() string
	Dispatch(h ClientHandler) error
}

type ClientHandler interface {
	HandleJoin(Join) error
	HandleStroke(Stroke) error
	HandleClearCanvas(ClearCanvas) error
	HandleChatOrGuess(ChatOrGuess) error
	HandleSelectWord(SelectWord) error
	HandleLeave(Leave) error
	HandlePing(Ping) error
}

type Join struct {
	Username string `json:"username" validate:"required,username"`
}

type Stroke struct {
	canvas.Stroke
}

type ClearCanvas struct{}

type ChatOrGuess struct {
	Text string `json:"text" validate:"max=200"`
}

type SelectWord struct {
	Index int `json:"index"`
}

type Leave struct{}

type Ping struct{}

func (Join) Type() string        { return TypeJoin }
func (Stroke) Type() string      { return TypeStroke }
func (ClearCanvas) Type() string { return TypeClearCanvas }
func (ChatOrGuess) Type() string { return TypeChatOrGuess }
func (SelectWord) Type() string  { return TypeSelectWord }
func (Leave) Type() string       { return TypeLeave }
func (Ping) Type() string        { return TypePing }

func (m Join) Dispatch(h ClientHandler) error        { return h.HandleJoin(m) }
func (m Stroke) Dispatch(h ClientHandler) error      { return h.HandleStroke(m) }
func (m ClearCanvas) Dispatch(h ClientHandler) error { return h.HandleClearCanvas(m) }
func (m ChatOrGuess) Dispatch(h ClientHandler) error { return h.HandleChatOrGuess(m) }
func (m SelectWord) Dispatch(h ClientHandler) error  { return h.HandleSelectWord(m) }
func (m Leave) Dispatch(h ClientHandler) error       { return h.HandleLeave(m) }
func (m Ping) Dispatch(h ClientHandler) error        { return h.HandlePing(m) }

// ServerMessage is anything the server sends to a client.
type ServerMessage interface {
	Type() string
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

type ChatLine struct {
	SenderID     string    `json:"sender_id,omitempty"`
	Name         string    `json:"name,omitempty"`
	Text         string    `json:"text,omitempty"`
	At           time.Time `json:"at"`
	CorrectGuess bool      `json:"correct_guess,omitempty"`
}

type Welcome struct {
	PlayerID    string          `json:"player_id"`
	Canvas      canvas.Snapshot `json:"canvas"`
	Players     []PlayerInfo    `json:"players"`
	Phase       string          `json:"phase"`
	Round       int             `json:"round"`
	Drawer      string          `json:"drawer,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Word        string          `json:"word,omitempty"`
	SecondsLeft int             `json:"seconds_left,omitempty"`
	Chat        []ChatLine      `json:"chat,omitempty"`
}

type StrokeApplied struct {
	Drawer string        `json:"drawer"`
	Stroke canvas.Stroke `json:"stroke"`
}

type CanvasCleared struct{}

type ChatEvent struct {
	SenderID string `json:"sender_id"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

type CorrectGuess struct {
	SenderID string `json:"sender_id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
}

type ChoosingWord struct {
	Drawer  string `json:"drawer"`
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
}

type WordChoices struct {
	Candidates []string `json:"candidates"`
	Seconds    int      `json:"seconds"`
}

type RoundStarted struct {
	Round      int    `json:"round"`
	Drawer     string `json:"drawer"`
	Name       string `json:"name"`
	WordLength int    `json:"word_length"`
	Hint       string `json:"hint"`
	Seconds    int    `json:"seconds"`
	Word       string `json:"word,omitempty"`
}

type WordHint struct {
	Hint string `json:"hint"`
}

type RoundEnded struct {
	Word    string         `json:"word"`
	Reason  string         `json:"reason"`
	Scores  []PlayerInfo   `json:"scores"`
	Awarded map[string]int `json:"awarded,omitempty"`
}

type ScoreUpdate struct {
	Scores []PlayerInfo `json:"scores"`
}

type PlayerJoined struct {
	Player   PlayerInfo `json:"player"`
	Rejoined bool       `json:"rejoined,omitempty"`
}

type PlayerLeft struct {
	Player PlayerInfo `json:"player"`
	Purged bool       `json:"purged,omitempty"`
}

type PhaseChanged struct {
	Phase string `json:"phase"`
}

type GameOver struct {
	Standings []PlayerInfo `json:"standings"`
}

type Notice struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type Error struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

func (Welcome) Type() string       { return TypeWelcome }
func (StrokeApplied) Type() string { return TypeStrokeApplied }
func (CanvasCleared) Type() string { return TypeCanvasCleared }
func (ChatEvent) Type() string     { return TypeChatEvent }
func (CorrectGuess) Type() string  { return TypeCorrectGuess }
func (ChoosingWord) Type() string  { return TypeChoosingWord }
func (WordChoices) Type() string   { return TypeWordChoices }
func (RoundStarted) Type() string  { return TypeRoundStarted }
func (WordHint) Type() string      { return TypeWordHint }
func (RoundEnded) Type() string    { return TypeRoundEnded }
func (ScoreUpdate) Type() string   { return TypeScoreUpdate }
func (PlayerJoined) Type() string  { return TypePlayerJoined }
func (PlayerLeft) Type() string    { return TypePlayerLeft }
func (PhaseChanged) Type() string  { return TypePhaseChanged }
func (GameOver) Type() string      { return TypeGameOver }
func (Notice) Type() string        { return TypeNotice }
func (Error) Type() string         { return TypeError }
