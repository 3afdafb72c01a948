// Package flow drives prerequisite-ordered chat stages between agents.
//
// A Plan declares the stages: who opens, who answers, the opening message,
// and which earlier stages must finish first. The Driver runs each stage as
// a Session, relaying replies between the two participants, executing any
// requested capability through the Registry and feeding the result back,
// until the termination sentinel fires or the turn ceiling is reached. Each
// finished stage yields a summary that is injected as context into the
// stages depending on it.
package flow
