package simple

import "github.com/agentique/relay/components/systemprompt"

type Option func(*Generator)

func WithContextProviders(providers ...systemprompt.ContextProvider) Option {
	return func(g *Generator) {
		g.AddContextProviders(providers...)
	}
}
