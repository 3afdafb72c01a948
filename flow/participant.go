package flow

import (
	"context"

	"github.com/agentique/relay/components"
)

// Responder produces one reply per turn. agents.Agent satisfies this through
// a thin adapter; tests use scripted implementations.
type Responder interface {
	Name() string
	Run(ctx context.Context, prompt *Prompt, reply *Reply, apiResp *components.ApiResponse) error
}

// Participant pairs a Responder with its termination predicate.
type Participant struct {
	Responder
	terminate func(string) bool
}

type ParticipantOption func(*Participant)

// WithTermination overrides the sentinel predicate for this participant.
func WithTermination(fn func(string) bool) ParticipantOption {
	return func(p *Participant) {
		p.terminate = fn
	}
}

func NewParticipant(r Responder, opts ...ParticipantOption) *Participant {
	ret := &Participant{Responder: r}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.terminate == nil {
		ret.terminate = Terminated
	}
	return ret
}

// Terminated reports whether an incoming message from the counterpart closes
// the session for this participant.
func (p *Participant) Terminated(content string) bool {
	return p.terminate(content)
}
