package game

import (
	"fmt"

	"termibbl/internal/protocol"
)

// Error is a rejected action. It is reported to the originating player only.
type Error struct {
	Kind   protocol.ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrProtocol          = &Error{Kind: protocol.KindProtocolError}
	ErrInvalidTurnAction = &Error{Kind: protocol.KindInvalidTurnAction}
	ErrNotYourTurn       = &Error{Kind: protocol.KindNotYourTurn}
	ErrRoundNotActive    = &Error{Kind: protocol.KindRoundNotActive}
	ErrOutOfBounds       = &Error{Kind: protocol.KindOutOfBounds}
	ErrNotDrawer         = &Error{Kind: protocol.KindNotDrawer}
	ErrSessionFull       = &Error{Kind: protocol.KindSessionFull}
	ErrNameTaken         = &Error{Kind: protocol.KindNameTaken}
	ErrInvalidName       = &Error{Kind: protocol.KindInvalidName}
	ErrUnknownPlayer     = &Error{Kind: protocol.KindConnectionLost, Detail: "unknown player"}
)

func fail(kind protocol.ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
