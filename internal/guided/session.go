package guided

import (
	"strings"
	"time"

	"groundwork/internal/llmclient"
	"groundwork/internal/theory"
)

// Session is one active elicitation conversation. Sessions are never
// deleted, only marked inactive: the message log is the audit trail of
// how the theory was derived.
type Session struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`

	CurrentStep          Step                  `json:"currentStep"`
	CompletionPercentage int                   `json:"completionPercentage"`
	PartialTheory        theory.TheoryOfChange `json:"partialTheory"`
	Active               bool                  `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one immutable row of a session's append-only log.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Role      llmclient.Role `json:"role"`
	Content   string         `json:"content"`
	Step      Step           `json:"step"`
	CreatedAt time.Time      `json:"createdAt"`
}

// interpret maps a raw answer onto the theory field for the given
// step. Single-string steps capture the whole response; list steps
// split on line breaks and drop blanks.
func interpret(step Step, answer string) theory.TheoryOfChange {
	var t theory.TheoryOfChange
	if listStep(step) {
		lines := theory.CleanList(strings.Split(answer, "\n"))
		switch step {
		case StepImpactVision:
			t.Impacts = lines
		case StepActivities:
			t.Activities = lines
		case StepOutputs:
			t.Outputs = lines
		case StepShortTermOutcomes:
			t.ShortTermOutcomes = lines
		case StepLongTermOutcomes:
			t.LongTermOutcomes = lines
		case StepAssumptions:
			t.Assumptions = lines
		case StepExternalFactors:
			t.ExternalFactors = lines
		}
		return t
	}
	switch step {
	case StepTargetPopulation:
		t.TargetPopulation = strings.TrimSpace(answer)
	case StepProblemDefinition:
		t.ProblemDefinition = strings.TrimSpace(answer)
	}
	return t
}
