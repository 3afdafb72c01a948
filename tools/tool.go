package tools

import (
	"context"

	"github.com/agentique/relay/schema"
)

// ITool is the descriptive surface every tool carries.
type ITool interface {
	SetTitle(string)
	Title() string
	SetDescription(string)
	Description() string
}

// Tool is a typed capability body: validated input in, structured output out.
type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}
