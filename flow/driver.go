package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// ErrMissingPrerequisite reports a stage whose prerequisite has not produced
// a result yet.
var ErrMissingPrerequisite = errors.New("prerequisite has no result")

// DefaultMaxTurns caps the number of participant turns per stage. The
// sentinel depends entirely on model output, so the ceiling guarantees
// liveness; exhausting it is a soft failure.
const DefaultMaxTurns = 10

// Driver runs a Plan's stages strictly in declaration order. The registry is
// frozen before the first stage starts, so a caller that wants to run
// independent stages concurrently may do so with one driver per stage.
type Driver struct {
	registry     *Registry
	participants map[string]*Participant
	maxTurns     int
	logger       *slog.Logger
	completed    *atomic.Int64
}

type DriverOption func(*Driver)

// WithMaxTurns overrides the per-stage turn ceiling.
func WithMaxTurns(n int) DriverOption {
	return func(d *Driver) {
		d.maxTurns = n
	}
}

func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = l
	}
}

func NewDriver(registry *Registry, participants []*Participant, opts ...DriverOption) *Driver {
	ret := &Driver{
		registry:     registry,
		participants: make(map[string]*Participant, len(participants)),
		maxTurns:     DefaultMaxTurns,
		logger:       slog.Default(),
		completed:    atomic.NewInt64(0),
	}
	for _, p := range participants {
		ret.participants[p.Name()] = p
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Completed returns the number of sessions driven to a terminal state.
func (d *Driver) Completed() int64 {
	return d.completed.Load()
}

// Run validates the plan against the registered participants, freezes the
// registry, and drives every stage to a terminal state. The returned Results
// holds one entry per stage. A responder error aborts the run; capability
// failures never do.
func (d *Driver) Run(ctx context.Context, plan *Plan) (Results, error) {
	if err := plan.Validate(lo.Keys(d.participants)...); err != nil {
		return nil, err
	}
	d.registry.Freeze()
	results := make(Results, len(plan.Stages))
	for _, spec := range plan.Stages {
		res, err := d.runStage(ctx, spec, results)
		if err != nil {
			return results, fmt.Errorf("stage %q: %w", spec.ID, err)
		}
		results[spec.ID] = res
	}
	return results, nil
}

func (d *Driver) runStage(ctx context.Context, spec StageSpec, results Results) (*Result, error) {
	session := newSession(spec)
	opening, err := d.openingMessage(spec, results)
	if err != nil {
		return nil, err
	}
	sender := d.participants[spec.Sender]
	recipient := d.participants[spec.Recipient]
	maxTurns := spec.MaxTurns
	if maxTurns <= 0 {
		maxTurns = d.maxTurns
	}
	session.state = StateActive
	d.logger.Info("stage started",
		"stage", spec.ID,
		"session", session.ID(),
		"sender", spec.Sender,
		"recipient", spec.Recipient,
	)

	// The recipient answers the opening message; afterwards the two sides
	// alternate, except that a capability callback goes back to the agent
	// that requested it.
	session.record(Turn{Speaker: sender.Name(), Content: opening})
	speaker, listener := recipient, sender
	prompt := opening
	for turn := 0; turn < maxTurns; turn++ {
		reply := new(Reply)
		if err := speaker.Run(ctx, NewPrompt(prompt), reply, nil); err != nil {
			return nil, fmt.Errorf("participant %q: %w", speaker.Name(), err)
		}
		session.record(Turn{Speaker: speaker.Name(), Content: reply.Content, Call: reply.ToolCall})
		if call := reply.ToolCall; call != nil {
			session.state = StateAwaitingCapability
			d.logger.Info("capability requested",
				"stage", spec.ID,
				"capability", call.Name,
				"requester", speaker.Name(),
			)
			callback := d.registry.Execute(ctx, call, speaker.Name(), listener.Name())
			if callback.IsError {
				d.logger.Warn("capability failed",
					"stage", spec.ID,
					"capability", call.Name,
					"error", callback.Content,
				)
			}
			session.record(Turn{Speaker: listener.Name(), Content: callback.Message(), Callback: callback})
			session.state = StateActive
			prompt = callback.Message()
			continue
		}
		if listener.Terminated(reply.Content) {
			session.terminate(CauseSentinel)
			break
		}
		prompt = reply.Content
		speaker, listener = listener, speaker
	}
	if session.State() != StateTerminated {
		session.terminate(CauseTurnLimit)
		d.logger.Warn("turn limit reached", "stage", spec.ID, "max_turns", maxTurns)
	}
	d.completed.Inc()
	ret := &Result{
		StageID:    spec.ID,
		Summary:    summarize(spec.Summary, session.transcript),
		Transcript: session.Transcript(),
		Cause:      session.Cause(),
	}
	d.logger.Info("stage finished",
		"stage", spec.ID,
		"cause", ret.Cause,
		"turns", len(ret.Transcript),
	)
	return ret, nil
}

// openingMessage appends the prerequisite summaries to the stage's declared
// message as context.
func (d *Driver) openingMessage(spec StageSpec, results Results) (string, error) {
	if len(spec.Prerequisites) == 0 {
		return spec.Message, nil
	}
	var b strings.Builder
	b.WriteString(spec.Message)
	b.WriteString("\n\nContext:\n")
	for _, pre := range spec.Prerequisites {
		res, ok := results[pre]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingPrerequisite, pre)
		}
		b.WriteString(res.Summary)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
