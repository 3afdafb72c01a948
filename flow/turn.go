package flow

import (
	"encoding/json"

	"github.com/agentique/relay/components"
	"github.com/agentique/relay/schema"
)

// Prompt is the message handed to a participant for its next turn.
type Prompt struct {
	schema.Base
	// Content chat message for the participant to answer.
	Content string `json:"content" jsonschema:"title=content,description=Chat message for the participant to answer." validate:"required"`
}

func NewPrompt(content string) *Prompt {
	return &Prompt{Content: content}
}

func (p Prompt) String() string {
	return p.Content
}

// Reply is a participant's turn: free text, optionally carrying a request to
// execute a registered capability.
type Reply struct {
	schema.Base
	// Content the reply text.
	Content string `json:"content" jsonschema:"title=content,description=The reply text."`
	// ToolCall optional capability request to execute before answering further.
	ToolCall *components.ToolCall `json:"tool_call,omitempty" jsonschema:"title=tool_call,description=Optional capability request to execute before answering further."`
}

func (r Reply) String() string {
	bs, _ := json.Marshal(r)
	return string(bs)
}

// Turn is one transcript record, attributed to the participant that produced
// it. Exactly one of Content/Call/Callback drives the next step: a Call moves
// the session to capability execution, a Callback is the execution outcome
// relayed back to the requester.
type Turn struct {
	Speaker  string                   `json:"speaker"`
	Content  string                   `json:"content,omitempty"`
	Call     *components.ToolCall     `json:"call,omitempty"`
	Callback *components.ToolCallback `json:"callback,omitempty"`
}
