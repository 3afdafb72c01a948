package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/agentique/relay/components"
	"github.com/agentique/relay/schema"
)

// scripted replays a fixed list of replies and records every prompt it was
// handed. Once the script runs out it keeps answering with filler text.
type scripted struct {
	name    string
	replies []Reply
	idx     int
	prompts []string
}

func (s *scripted) Name() string {
	return s.name
}

func (s *scripted) Run(_ context.Context, prompt *Prompt, reply *Reply, _ *components.ApiResponse) error {
	s.prompts = append(s.prompts, prompt.Content)
	if s.idx < len(s.replies) {
		*reply = s.replies[s.idx]
		s.idx++
		return nil
	}
	*reply = Reply{Content: "nothing more to add"}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDriverThreeStageFlow(t *testing.T) {
	orchestrator := &scripted{name: "orchestrator"}
	assistant := &scripted{name: "assistant", replies: []Reply{
		{Content: "Stage one findings. TERMINATE"},
		{Content: "Analysis: demand doubled. TERMINATE"},
		{Content: "Report written. TERMINATE"},
	}}
	plan := &Plan{Stages: []StageSpec{
		{ID: "search", Sender: "orchestrator", Recipient: "assistant", Message: "Find coverage."},
		{ID: "analyze", Sender: "orchestrator", Recipient: "assistant", Message: "Analyze the findings.", Prerequisites: []string{"search"}},
		{ID: "report", Sender: "orchestrator", Recipient: "assistant", Message: "Write the report.", Prerequisites: []string{"analyze"}},
	}}
	driver := NewDriver(NewRegistry(),
		[]*Participant{NewParticipant(orchestrator), NewParticipant(assistant)},
		WithLogger(quietLogger()),
	)
	results, err := driver.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Error running plan: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expect exactly 3 results, but got %d", len(results))
	}
	if driver.Completed() != 3 {
		t.Errorf("Expect 3 completed sessions, but got %d", driver.Completed())
	}
	for id, res := range results {
		if res.Cause != CauseSentinel {
			t.Errorf("Stage %q: expect sentinel termination, but got %q", id, res.Cause)
		}
	}
	if got := results["analyze"].Summary; got != "Analysis: demand doubled." {
		t.Errorf("Expect stripped summary, but got %q", got)
	}
	// stage 2's prompt carries stage 1's summary, stage 3's carries stage 2's
	if !strings.Contains(assistant.prompts[1], "Stage one findings.") {
		t.Errorf("Expect analyze prompt to contain the search summary, but got %q", assistant.prompts[1])
	}
	if !strings.Contains(assistant.prompts[2], "Analysis: demand doubled.") {
		t.Errorf("Expect report prompt to contain the analyze summary verbatim, but got %q", assistant.prompts[2])
	}
	if !strings.Contains(assistant.prompts[2], "Context:") {
		t.Errorf("Expect injected context marker, but got %q", assistant.prompts[2])
	}
}

func TestDriverCapabilityDispatch(t *testing.T) {
	reg := NewRegistry()
	prototype, fn := Typed(func(_ context.Context, input *echoInput) (schema.String, error) {
		return schema.String("results for " + input.Text), nil
	})
	if err := reg.Register("web_search", "Searches the web.", prototype, fn, "orchestrator", "assistant"); err != nil {
		t.Fatalf("Error registering capability: %v", err)
	}
	orchestrator := &scripted{name: "orchestrator"}
	assistant := &scripted{name: "assistant", replies: []Reply{
		{ToolCall: &components.ToolCall{ID: "c1", Name: "web_search", Arguments: `{"text":"batteries"}`}},
		{Content: "Found it. TERMINATE"},
	}}
	driver := NewDriver(reg,
		[]*Participant{NewParticipant(orchestrator), NewParticipant(assistant)},
		WithLogger(quietLogger()),
	)
	plan := &Plan{Stages: []StageSpec{
		{ID: "search", Sender: "orchestrator", Recipient: "assistant", Message: "Find coverage."},
	}}
	results, err := driver.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Error running plan: %v", err)
	}
	// the callback goes back to the requester, not to the counterpart
	if len(assistant.prompts) != 2 {
		t.Fatalf("Expect assistant to speak twice, but got %d prompts", len(assistant.prompts))
	}
	if want := `Capability "web_search" returned: results for batteries`; assistant.prompts[1] != want {
		t.Errorf("Expect callback prompt %q, but got %q", want, assistant.prompts[1])
	}
	transcript := results["search"].Transcript
	var sawCallback bool
	for _, turn := range transcript {
		if turn.Callback != nil {
			sawCallback = true
			if turn.Callback.IsError {
				t.Errorf("Expect successful callback, but got error: %s", turn.Callback.Content)
			}
			if turn.Speaker != "orchestrator" {
				t.Errorf("Expect the executing counterpart to own the callback turn, but got %q", turn.Speaker)
			}
		}
	}
	if !sawCallback {
		t.Error("Expect a callback turn in the transcript")
	}
}

func TestDriverUnknownCapability(t *testing.T) {
	orchestrator := &scripted{name: "orchestrator"}
	assistant := &scripted{name: "assistant", replies: []Reply{
		{ToolCall: &components.ToolCall{Name: "nope", Arguments: `{}`}},
		{Content: "Giving up. TERMINATE"},
	}}
	driver := NewDriver(NewRegistry(),
		[]*Participant{NewParticipant(orchestrator), NewParticipant(assistant)},
		WithLogger(quietLogger()),
	)
	plan := &Plan{Stages: []StageSpec{
		{ID: "search", Sender: "orchestrator", Recipient: "assistant", Message: "Find coverage."},
	}}
	results, err := driver.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Expect soft failure, but run aborted: %v", err)
	}
	if !strings.Contains(assistant.prompts[1], `Capability "nope" failed`) {
		t.Errorf("Expect failure message fed back to requester, but got %q", assistant.prompts[1])
	}
	if results["search"].Cause != CauseSentinel {
		t.Errorf("Expect session to continue to sentinel termination, but got %q", results["search"].Cause)
	}
}

func TestDriverTurnLimit(t *testing.T) {
	orchestrator := &scripted{name: "orchestrator"}
	assistant := &scripted{name: "assistant"}
	driver := NewDriver(NewRegistry(),
		[]*Participant{NewParticipant(orchestrator), NewParticipant(assistant)},
		WithMaxTurns(4),
		WithLogger(quietLogger()),
	)
	plan := &Plan{Stages: []StageSpec{
		{ID: "chatter", Sender: "orchestrator", Recipient: "assistant", Message: "Talk forever."},
	}}
	results, err := driver.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Expect soft failure on turn exhaustion, but got %v", err)
	}
	res := results["chatter"]
	if res.Cause != CauseTurnLimit {
		t.Errorf("Expect turn_limit cause, but got %q", res.Cause)
	}
	if res.Summary != "nothing more to add" {
		t.Errorf("Expect summary extracted despite exhaustion, but got %q", res.Summary)
	}
	if got := len(assistant.prompts) + len(orchestrator.prompts); got != 4 {
		t.Errorf("Expect exactly 4 turns, but got %d", got)
	}
}

func TestDriverRejectsInvalidPlan(t *testing.T) {
	driver := NewDriver(NewRegistry(),
		[]*Participant{NewParticipant(&scripted{name: "orchestrator"})},
		WithLogger(quietLogger()),
	)
	plan := &Plan{Stages: []StageSpec{
		{ID: "a", Sender: "orchestrator", Recipient: "ghost", Message: "hi"},
	}}
	if _, err := driver.Run(context.Background(), plan); err == nil {
		t.Fatal("Expect unknown participant error")
	}
}

func TestDriverPropagatesResponderError(t *testing.T) {
	boom := errors.New("model unavailable")
	failing := &failingResponder{name: "assistant", err: boom}
	driver := NewDriver(NewRegistry(),
		[]*Participant{NewParticipant(&scripted{name: "orchestrator"}), NewParticipant(failing)},
		WithLogger(quietLogger()),
	)
	plan := &Plan{Stages: []StageSpec{
		{ID: "a", Sender: "orchestrator", Recipient: "assistant", Message: "hi"},
	}}
	if _, err := driver.Run(context.Background(), plan); !errors.Is(err, boom) {
		t.Fatalf("Expect responder error to propagate, but got %v", err)
	}
}

type failingResponder struct {
	name string
	err  error
}

func (f *failingResponder) Name() string {
	return f.name
}

func (f *failingResponder) Run(context.Context, *Prompt, *Reply, *components.ApiResponse) error {
	return f.err
}
