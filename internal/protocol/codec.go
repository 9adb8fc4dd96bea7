package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed wraps every decoding failure; the connection that sent it is closed.
var ErrMalformed = errors.New("malformed message")

// Envelope is the JSON payload carried by a frame.
type Envelope struct {
	Type string          `json:"type"`
	Seq  uint64          `json:"seq,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type message interface {
	Type() string
}

func encode(msg message, seq uint64) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
	}
	return json.Marshal(Envelope{Type: msg.Type(), Seq: seq, Data: data})
}

// EncodeServer serialises a server message with its session sequence number.
func EncodeServer(msg ServerMessage, seq uint64) ([]byte, error) {
	return encode(msg, seq)
}

func EncodeClient(msg ClientMessage) ([]byte, error) {
	return encode(msg, 0)
}

func openEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env, nil
}

func decodeAs[T any](env Envelope) (T, error) {
	var msg T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return msg, nil
	}
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}

func clientAs[T ClientMessage](env Envelope) (ClientMessage, error) {
	msg, err := decodeAs[T](env)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func serverAs[T ServerMessage](env Envelope) (ServerMessage, error) {
	msg, err := decodeAs[T](env)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeClient parses and validates one client payload.
func DecodeClient(payload []byte) (ClientMessage, error) {
	env, err := openEnvelope(payload)
	if err != nil {
		return nil, err
	}
	var msg ClientMessage
	switch env.Type {
	case TypeJoin:
		msg, err = clientAs[Join](env)
	case TypeStroke:
		msg, err = clientAs[Stroke](env)
	case TypeClearCanvas:
		msg, err = clientAs[ClearCanvas](env)
	case TypeChatOrGuess:
		msg, err = clientAs[ChatOrGuess](env)
	case TypeSelectWord:
		msg, err = clientAs[SelectWord](env)
	case TypeLeave:
		msg, err = clientAs[Leave](env)
	case TypePing:
		msg, err = clientAs[Ping](env)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeServer parses one server payload and returns its sequence number.
func DecodeServer(payload []byte) (ServerMessage, uint64, error) {
	env, err := openEnvelope(payload)
	if err != nil {
		return nil, 0, err
	}
	var msg ServerMessage
	switch env.Type {
	case TypeWelcome:
		msg, err = serverAs[Welcome](env)
	case TypeStrokeApplied:
		msg, err = serverAs[StrokeApplied](env)
	case TypeCanvasCleared:
		msg, err = serverAs[CanvasCleared](env)
	case TypeChatEvent:
		msg, err = serverAs[ChatEvent](env)
	case TypeCorrectGuess:
		msg, err = serverAs[CorrectGuess](env)
	case TypeChoosingWord:
		msg, err = serverAs[ChoosingWord](env)
	case TypeWordChoices:
		msg, err = serverAs[WordChoices](env)
	case TypeRoundStarted:
		msg, err = serverAs[RoundStarted](env)
	case TypeWordHint:
		msg, err = serverAs[WordHint](env)
	case TypeRoundEnded:
		msg, err = serverAs[RoundEnded](env)
	case TypeScoreUpdate:
		msg, err = serverAs[ScoreUpdate](env)
	case TypePlayerJoined:
		msg, err = serverAs[PlayerJoined](env)
	case TypePlayerLeft:
		msg, err = serverAs[PlayerLeft](env)
	case TypePhaseChanged:
		msg, err = serverAs[PhaseChanged](env)
	case TypeGameOver:
		msg, err = serverAs[GameOver](env)
	case TypeNotice:
		msg, err = serverAs[Notice](env)
	case TypeError:
		msg, err = serverAs[Error](env)
	default:
		return nil, 0, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
	if err != nil {
		return nil, 0, err
	}
	return msg, env.Seq, nil
}
