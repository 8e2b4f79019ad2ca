package guided

import "math"

// Step is one state of the guided elicitation machine.
type Step string

const (
	StepImpactVision      Step = "impact_vision"
	StepTargetPopulation  Step = "target_population"
	StepProblemDefinition Step = "problem_definition"
	StepActivities        Step = "activities"
	StepOutputs           Step = "outputs"
	StepShortTermOutcomes Step = "short_term_outcomes"
	StepLongTermOutcomes  Step = "long_term_outcomes"
	StepAssumptions       Step = "assumptions"
	StepExternalFactors   Step = "external_factors"
	StepComplete          Step = "complete"
)

// stepOrder is a static total order. Every step is visited exactly
// once per run; there is no branching or skip-ahead, even when an
// answer happens to cover a later field. That keeps methodology
// coverage complete rather than accidentally partial.
var stepOrder = []Step{
	StepImpactVision,
	StepTargetPopulation,
	StepProblemDefinition,
	StepActivities,
	StepOutputs,
	StepShortTermOutcomes,
	StepLongTermOutcomes,
	StepAssumptions,
	StepExternalFactors,
}

// Next returns the step after current. Unknown steps and the last
// elicitation step both advance to complete; complete is terminal.
func Next(current Step) Step {
	for i, s := range stepOrder {
		if s == current {
			if i+1 < len(stepOrder) {
				return stepOrder[i+1]
			}
			return StepComplete
		}
	}
	return StepComplete
}

// StepIndex returns the zero-based position of a step, or -1.
func StepIndex(s Step) int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	if s == StepComplete {
		return len(stepOrder)
	}
	return -1
}

// TotalSteps is the number of elicitation steps before complete.
func TotalSteps() int { return len(stepOrder) }

// CompletionPercent is a deterministic function of position, not of
// answer quality: progress reflects conversation coverage.
func CompletionPercent(s Step) int {
	idx := StepIndex(s)
	if idx < 0 {
		return 0
	}
	return int(math.Round(float64(idx) / float64(len(stepOrder)) * 100))
}

// listStep reports whether the step's answer is interpreted as a
// line-separated list rather than a single string.
func listStep(s Step) bool {
	switch s {
	case StepTargetPopulation, StepProblemDefinition:
		return false
	}
	return true
}

// DefaultPrompts returns the canned elicitation prompt per step.
// Deployments may override the wording through configuration.
func DefaultPrompts() map[Step]string {
	return map[Step]string{
		StepImpactVision:      "Imagine your organization fully succeeds. What lasting change exists in the world that would not exist without you? List each impact on its own line.",
		StepTargetPopulation:  "Who, specifically, does your organization serve? Describe your target population.",
		StepProblemDefinition: "What problem are you working to solve for them, and why does it persist?",
		StepActivities:        "What does your organization actually do? List each core activity on its own line.",
		StepOutputs:           "What direct, countable products do those activities produce? One per line.",
		StepShortTermOutcomes: "What changes do you expect within one to two years? One per line.",
		StepLongTermOutcomes:  "What changes do you expect within three to five years? One per line.",
		StepAssumptions:       "What must hold true for this causal chain to work? List each assumption on its own line.",
		StepExternalFactors:   "What outside factors could help or hurt these outcomes? One per line.",
	}
}

const completionMessage = "That completes your theory of change. We've saved it and scored how ready your foundation is for measurement."
