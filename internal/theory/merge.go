package theory

import "strings"

// Merge folds incoming partial data into existing without regressing
// earlier progress. Scalars: a non-empty incoming value overwrites, an
// empty one never clobbers. Lists: replaced whole when incoming is
// non-empty; no item-level diffing. Guided answers arrive one field at
// a time while document extraction arrives as a full snapshot, and the
// asymmetry lets both compose.
func Merge(existing *TheoryOfChange, incoming TheoryOfChange) TheoryOfChange {
	var out TheoryOfChange
	if existing != nil {
		out = *existing
	}

	mergeScalar(&out.TargetPopulation, incoming.TargetPopulation)
	mergeScalar(&out.ProblemDefinition, incoming.ProblemDefinition)
	mergeScalar(&out.InterventionType, incoming.InterventionType)
	mergeScalar(&out.Sector, incoming.Sector)
	mergeScalar(&out.GeographicScope, incoming.GeographicScope)

	mergeList(&out.Activities, incoming.Activities)
	mergeList(&out.Outputs, incoming.Outputs)
	mergeList(&out.ShortTermOutcomes, incoming.ShortTermOutcomes)
	mergeList(&out.LongTermOutcomes, incoming.LongTermOutcomes)
	mergeList(&out.Impacts, incoming.Impacts)
	mergeList(&out.Assumptions, incoming.Assumptions)
	mergeList(&out.ExternalFactors, incoming.ExternalFactors)

	return out
}

func mergeScalar(dst *string, incoming string) {
	if Present(incoming) {
		*dst = strings.TrimSpace(incoming)
	}
}

func mergeList(dst *[]string, incoming []string) {
	cleaned := CleanList(incoming)
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}

// CleanList trims entries and drops blanks, preserving order.
func CleanList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
