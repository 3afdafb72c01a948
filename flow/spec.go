package flow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// SummaryMethod selects how a finished stage's summary is derived from its
// transcript.
type SummaryMethod string

const (
	// SummaryLastMessage uses the last free-text message, sentinel stripped.
	// This is the default.
	SummaryLastMessage SummaryMethod = "last_msg"
	// SummaryAllMessages joins every free-text message in order.
	SummaryAllMessages SummaryMethod = "all_msgs"
)

// StageSpec declares one chat stage: who opens, who answers, the opening
// message, and which earlier stages must have finished first.
type StageSpec struct {
	ID            string        `yaml:"id" json:"id"`
	Sender        string        `yaml:"sender" json:"sender"`
	Recipient     string        `yaml:"recipient" json:"recipient"`
	Message       string        `yaml:"message" json:"message"`
	Prerequisites []string      `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	Summary       SummaryMethod `yaml:"summary,omitempty" json:"summary,omitempty"`
	// MaxTurns overrides the driver's turn ceiling for this stage.
	MaxTurns int `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
}

// Plan is an ordered list of stages. Prerequisites must name stages declared
// earlier in the list, so declaration order is a valid execution order.
type Plan struct {
	Stages []StageSpec `yaml:"stages" json:"stages"`
}

// LoadPlan reads a YAML plan from path.
func LoadPlan(path string) (*Plan, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlan(bs)
}

// ParsePlan decodes a YAML plan.
func ParsePlan(bs []byte) (*Plan, error) {
	plan := new(Plan)
	if err := yaml.Unmarshal(bs, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate checks the plan's structure. When participant names are given,
// every sender and recipient must be one of them.
func (p *Plan) Validate(participants ...string) error {
	if len(p.Stages) == 0 {
		return errors.New("plan has no stages")
	}
	known := make(map[string]struct{}, len(participants))
	for _, name := range participants {
		known[name] = struct{}{}
	}
	seen := make(map[string]struct{}, len(p.Stages))
	for idx, stage := range p.Stages {
		if stage.ID == "" || stage.Sender == "" || stage.Recipient == "" || stage.Message == "" {
			return fmt.Errorf("stage %d: id, sender, recipient and message are required", idx)
		}
		if _, ok := seen[stage.ID]; ok {
			return fmt.Errorf("duplicate stage id %q", stage.ID)
		}
		if len(known) > 0 {
			for _, name := range []string{stage.Sender, stage.Recipient} {
				if _, ok := known[name]; !ok {
					return fmt.Errorf("stage %q: unknown participant %q", stage.ID, name)
				}
			}
		}
		switch stage.Summary {
		case "", SummaryLastMessage, SummaryAllMessages:
		default:
			return fmt.Errorf("stage %q: unknown summary method %q", stage.ID, stage.Summary)
		}
		for _, pre := range stage.Prerequisites {
			if pre == stage.ID {
				return fmt.Errorf("stage %q: depends on itself", stage.ID)
			}
			if _, ok := seen[pre]; !ok {
				return fmt.Errorf("stage %q: prerequisite %q does not precede it", stage.ID, pre)
			}
		}
		seen[stage.ID] = struct{}{}
	}
	return nil
}

// Cause records why a session reached its terminal state.
type Cause string

const (
	// CauseSentinel the termination sentinel fired.
	CauseSentinel Cause = "sentinel"
	// CauseTurnLimit the turn ceiling was exhausted (soft failure).
	CauseTurnLimit Cause = "turn_limit"
)

// Result is the outcome of one finished stage.
type Result struct {
	StageID    string `json:"stage_id"`
	Summary    string `json:"summary"`
	Transcript []Turn `json:"transcript"`
	Cause      Cause  `json:"cause"`
}

// Results maps stage ID to its outcome.
type Results map[string]*Result

// summarize derives a stage summary from its transcript. Capability turns
// are skipped; the trailing sentinel is stripped so the summary is safe to
// inject into dependent stages.
func summarize(method SummaryMethod, transcript []Turn) string {
	texts := lo.FilterMap(transcript, func(turn Turn, _ int) (string, bool) {
		if turn.Call != nil || turn.Callback != nil {
			return "", false
		}
		return turn.Content, turn.Content != ""
	})
	if len(texts) == 0 {
		return ""
	}
	switch method {
	case SummaryAllMessages:
		return StripSentinel(strings.Join(texts, "\n"))
	default:
		return StripSentinel(texts[len(texts)-1])
	}
}
