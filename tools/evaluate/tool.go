package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"github.com/agentique/relay/schema"
	"github.com/agentique/relay/tools"
)

// Input is the schema for an expression evaluation request. Supports basic
// arithmetic plus named variables, for deriving figures during analysis.
type Input struct {
	schema.Base
	// Expression mathematical expression to evaluate, e.g. '(a + b) / 2'.
	Expression string `json:"expression" jsonschema:"title=expression,description=Mathematical expression to evaluate. For example '(a + b) / 2'." validate:"required"`
	// Variables named values referenced by the expression.
	Variables map[string]float64 `json:"variables,omitempty" jsonschema:"title=variables,description=Named values referenced by the expression."`
}

func NewInput(exp string, variables map[string]float64) *Input {
	return &Input{
		Expression: exp,
		Variables:  variables,
	}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output is the evaluation result.
type Output struct {
	schema.Base
	// Result result of the evaluation.
	Result float64 `json:"result" jsonschema:"title=result,description=Result of the evaluation."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// constants available to every expression
var constants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

type Tool struct {
	tools.Config
}

func New(opts ...tools.Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("EvaluateTool")
	}
	return ret
}

// Run evaluates the expression with the given variables.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	exp, err := govaluate.NewEvaluableExpression(input.Expression)
	if err != nil {
		return nil, err
	}
	params := make(map[string]any, len(input.Variables)+len(constants))
	for k, v := range input.Variables {
		params[k] = v
	}
	for k, v := range constants {
		if _, ok := params[k]; !ok {
			params[k] = v
		}
	}
	result, err := exp.Evaluate(params)
	if err != nil {
		return nil, err
	}
	value, ok := result.(float64)
	if !ok {
		return nil, fmt.Errorf("evaluate: non-numeric result %v", result)
	}
	return &Output{Result: value}, nil
}
