package models

import "fmt"

// MaxPlanSteps caps how many steps the planner may produce.
const MaxPlanSteps = 4

// QueryPlanStep is one step of a research plan. ID is stable and assigned by
// the planner; it is not necessarily the step's index in the plan ordering.
type QueryPlanStep struct {
	ID           int    `json:"id"`
	Step         string `json:"step"`
	Dependencies []int  `json:"dependencies"`
}

// QueryPlan is an ordered sequence of steps. The last step is the terminal
// synthesis step; executing it ends the run.
type QueryPlan struct {
	Steps []QueryPlanStep `json:"steps"`
}

// Validate enforces the plan contract: 1 to MaxPlanSteps steps, no duplicate
// ids, no forward or self references (a dependency must name a step defined
// earlier in the plan), an independent first step, and at least one
// dependency on the terminal step so the synthesis quota is well defined.
func (p *QueryPlan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	if len(p.Steps) > MaxPlanSteps {
		return fmt.Errorf("plan has %d steps, maximum is %d", len(p.Steps), MaxPlanSteps)
	}
	if len(p.Steps[0].Dependencies) != 0 {
		return fmt.Errorf("first step cannot have dependencies")
	}
	seen := make(map[int]bool, len(p.Steps))
	for i, step := range p.Steps {
		if seen[step.ID] {
			return fmt.Errorf("duplicate step id %d", step.ID)
		}
		for _, dep := range step.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("step %d depends on undefined step %d", step.ID, dep)
			}
		}
		seen[step.ID] = true
		if i == len(p.Steps)-1 && len(p.Steps) > 1 && len(step.Dependencies) == 0 {
			return fmt.Errorf("terminal step %d has no dependencies", step.ID)
		}
	}
	return nil
}

// QueryStepExecution is the structured output for one non-terminal step:
// the search queries to run for it.
type QueryStepExecution struct {
	SearchQueries []string `json:"search_queries"`
}

// Validate enforces the 1-3 query cardinality of the step execution schema.
func (e *QueryStepExecution) Validate() error {
	if len(e.SearchQueries) < 1 || len(e.SearchQueries) > 3 {
		return fmt.Errorf("expected 1 to 3 search queries, got %d", len(e.SearchQueries))
	}
	return nil
}

// RelatedQueries is the structured output of the related-query generator.
type RelatedQueries struct {
	RelatedQueries []string `json:"related_queries"`
}

// Validate enforces the exactly-3 cardinality of the related-query schema.
func (r *RelatedQueries) Validate() error {
	if len(r.RelatedQueries) != 3 {
		return fmt.Errorf("expected exactly 3 related queries, got %d", len(r.RelatedQueries))
	}
	return nil
}

// StepContext is the truncated textual context accumulated for a completed
// step, consumed by later steps' prompts.
type StepContext struct {
	Step    string `json:"step"`
	Context string `json:"context"`
}

// AgentSearchStepStatus marks the lifecycle of a recorded plan step.
type AgentSearchStepStatus string

const (
	StepStatusDone    AgentSearchStepStatus = "done"
	StepStatusCurrent AgentSearchStepStatus = "current"
	StepStatusDefault AgentSearchStepStatus = "default"
)

// AgentSearchStep records one executed plan step for persistence.
type AgentSearchStep struct {
	StepNumber int                   `json:"step_number"`
	Step       string                `json:"step"`
	Queries    []string              `json:"queries"`
	Results    []SearchResult        `json:"results"`
	Status     AgentSearchStepStatus `json:"status"`
}

// AgentSearchFullResponse is the structured pro-search record saved with the
// assistant message.
type AgentSearchFullResponse struct {
	Steps        []string          `json:"steps"`
	StepsDetails []AgentSearchStep `json:"steps_details"`
}
