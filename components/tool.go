package components

import (
	"encoding/json"
	"fmt"
)

// ToolCall is a capability invocation requested by an agent. Arguments is a
// JSON encoded object matching the capability's parameter schema.
type ToolCall struct {
	ID        string `json:"id,omitempty" jsonschema:"title=id,description=Optional identifier correlating the request with its result."`
	Name      string `json:"name" jsonschema:"title=name,description=Name of the registered capability to execute."`
	Arguments string `json:"arguments,omitempty" jsonschema:"title=arguments,description=JSON encoded arguments matching the capability parameter schema."`
}

func (c ToolCall) String() string {
	bs, _ := json.Marshal(c)
	return string(bs)
}

// ToolCallback carries the outcome of executing a ToolCall. IsError marks
// execution failures that are reported back into the conversation instead of
// aborting the session.
type ToolCallback struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

func (c ToolCallback) String() string {
	bs, _ := json.Marshal(c)
	return string(bs)
}

// Message renders the callback as conversation text fed back to the
// requesting agent.
func (c ToolCallback) Message() string {
	if c.IsError {
		return fmt.Sprintf("Capability %q failed: %s", c.Name, c.Content)
	}
	return fmt.Sprintf("Capability %q returned: %s", c.Name, c.Content)
}
