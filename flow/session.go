package flow

import "github.com/google/uuid"

// State is a session's lifecycle phase.
type State string

const (
	StateBlocked            State = "blocked"
	StateActive             State = "active"
	StateAwaitingCapability State = "awaiting_capability"
	StateTerminated         State = "terminated"
)

// Session is the runtime instance of a StageSpec: a transcript plus the
// current lifecycle state. Each session is owned exclusively by the driver
// run that created it.
type Session struct {
	id         string
	spec       StageSpec
	state      State
	cause      Cause
	transcript []Turn
}

func newSession(spec StageSpec) *Session {
	return &Session{
		id:    uuid.NewString(),
		spec:  spec,
		state: StateBlocked,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Cause() Cause {
	return s.cause
}

// Transcript returns a copy of the recorded turns.
func (s *Session) Transcript() []Turn {
	ret := make([]Turn, len(s.transcript))
	copy(ret, s.transcript)
	return ret
}

func (s *Session) record(turn Turn) {
	s.transcript = append(s.transcript, turn)
}

func (s *Session) terminate(cause Cause) {
	s.state = StateTerminated
	s.cause = cause
}
