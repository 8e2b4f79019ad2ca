package theory

import "time"

// Dimension names the scored parts of a theory. Context tags,
// assumptions, and external factors inform elicitation but do not gate
// feature access.
type Dimension string

const (
	DimTargetPopulation  Dimension = "targetPopulation"
	DimProblemDefinition Dimension = "problemDefinition"
	DimActivities        Dimension = "activities"
	DimOutputs           Dimension = "outputs"
	DimShortTermOutcomes Dimension = "shortTermOutcomes"
	DimLongTermOutcomes  Dimension = "longTermOutcomes"
	DimImpacts           Dimension = "impacts"
)

// scoredDimensions is the fixed scoring order. Weights total 100.
var scoredDimensions = []struct {
	dim    Dimension
	weight int
}{
	{DimTargetPopulation, 20},
	{DimProblemDefinition, 15},
	{DimActivities, 15},
	{DimOutputs, 10},
	{DimShortTermOutcomes, 15},
	{DimLongTermOutcomes, 15},
	{DimImpacts, 10},
}

var dimensionRecommendations = map[Dimension]string{
	DimTargetPopulation:  "Define who your intervention serves, as specifically as you can.",
	DimProblemDefinition: "Describe the problem you address and why it persists.",
	DimActivities:        "List the concrete activities your organization carries out.",
	DimOutputs:           "Capture the direct, countable products of your activities.",
	DimShortTermOutcomes: "Describe the changes you expect within one to two years.",
	DimLongTermOutcomes:  "Describe the changes you expect within three to five years.",
	DimImpacts:           "Articulate the lasting systemic change you are working toward.",
}

// dimensionPresent applies the emptiness rule per dimension.
func dimensionPresent(t TheoryOfChange, d Dimension) bool {
	switch d {
	case DimTargetPopulation:
		return Present(t.TargetPopulation)
	case DimProblemDefinition:
		return Present(t.ProblemDefinition)
	case DimActivities:
		return len(CleanList(t.Activities)) > 0
	case DimOutputs:
		return len(CleanList(t.Outputs)) > 0
	case DimShortTermOutcomes:
		return len(CleanList(t.ShortTermOutcomes)) > 0
	case DimLongTermOutcomes:
		return len(CleanList(t.LongTermOutcomes)) > 0
	case DimImpacts:
		return len(CleanList(t.Impacts)) > 0
	}
	return false
}

// Completeness returns the weighted completeness score 0..100. Each
// dimension is binary: full weight when present, zero otherwise.
func Completeness(t TheoryOfChange) int {
	score := 0
	for _, sd := range scoredDimensions {
		if dimensionPresent(t, sd.dim) {
			score += sd.weight
		}
	}
	return score
}

// Score computes the full readiness assessment. Pure: no I/O, no clock
// beyond the ComputedAt stamp.
func Score(t TheoryOfChange) FoundationReadiness {
	r := FoundationReadiness{
		OrganizationID:  t.OrganizationID,
		TheoryID:        t.ID,
		TheoryVersion:   t.Version,
		MissingElements: []string{},
		StrengthAreas:   []string{},
		Recommendations: []string{},
		ComputedAt:      time.Now().UTC(),
	}
	for _, sd := range scoredDimensions {
		if dimensionPresent(t, sd.dim) {
			r.CompletenessScore += sd.weight
			r.StrengthAreas = append(r.StrengthAreas, string(sd.dim))
		} else {
			r.MissingElements = append(r.MissingElements, string(sd.dim))
			r.Recommendations = append(r.Recommendations, dimensionRecommendations[sd.dim])
		}
	}

	r.Level = LevelFor(r.CompletenessScore)
	r.BasicAccess, r.IntermediateAccess, r.AdvancedAccess = AccessFlags(r.Level)
	if r.Level == LevelInsufficient {
		r.Recommendations = append(r.Recommendations,
			"Complete the guided foundation flow to fill in the missing elements.")
	}
	return r
}

// LevelFor maps a completeness score to its readiness level. The
// boundaries are inclusive at 90, 70, and 50.
func LevelFor(score int) ReadinessLevel {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 70:
		return LevelGood
	case score >= 50:
		return LevelBasic
	default:
		return LevelInsufficient
	}
}

// AccessFlags returns the basic/intermediate/advanced gate flags for a level.
func AccessFlags(level ReadinessLevel) (basic, intermediate, advanced bool) {
	switch level {
	case LevelExcellent:
		return true, true, true
	case LevelGood:
		return true, true, false
	case LevelBasic:
		return true, false, false
	}
	return false, false, false
}
