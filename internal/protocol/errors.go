package protocol

// ErrorKind is the wire name of a rejected action.
type ErrorKind string

const (
	KindProtocolError     ErrorKind = "protocol_error"
	KindInvalidTurnAction ErrorKind = "invalid_turn_action"
	KindNotYourTurn       ErrorKind = "not_your_turn"
	KindRoundNotActive    ErrorKind = "round_not_active"
	KindOutOfBounds       ErrorKind = "out_of_bounds"
	KindNotDrawer         ErrorKind = "not_drawer"
	KindSessionFull       ErrorKind = "session_full"
	KindNameTaken         ErrorKind = "name_taken"
	KindInvalidName       ErrorKind = "invalid_name"
	KindConnectionLost    ErrorKind = "connection_lost"
	KindRateLimited       ErrorKind = "rate_limited"
	KindInvalidMessage    ErrorKind = "invalid_message"
)

// Fatal reports whether the server closes the connection after sending it.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindProtocolError, KindSessionFull, KindNameTaken, KindInvalidName, KindConnectionLost:
		return true
	default:
		return false
	}
}
