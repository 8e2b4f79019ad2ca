package theory

import (
	"strings"
	"time"
)

// TheoryOfChange is the canonical structured causal narrative for one
// organization. Emptiness is the missing sentinel: a scalar is present
// iff non-empty after trimming, a list iff it has at least one entry.
type TheoryOfChange struct {
	ID             string `json:"id,omitempty" prompt:"-"`
	OrganizationID string `json:"organizationId,omitempty" prompt:"-"`
	Version        int    `json:"version,omitempty" prompt:"-"`

	TargetPopulation  string `json:"targetPopulation" prompt_desc:"who the intervention serves"`
	ProblemDefinition string `json:"problemDefinition" prompt_desc:"the problem being addressed"`

	Activities        []string `json:"activities" prompt_desc:"what the organization does"`
	Outputs           []string `json:"outputs" prompt_desc:"direct products of activities"`
	ShortTermOutcomes []string `json:"shortTermOutcomes" prompt_desc:"changes expected within 1-2 years"`
	LongTermOutcomes  []string `json:"longTermOutcomes" prompt_desc:"changes expected within 3-5 years"`
	Impacts           []string `json:"impacts" prompt_desc:"lasting systemic change"`
	Assumptions       []string `json:"assumptions" prompt:"optional" prompt_desc:"conditions that must hold for the causal chain"`
	ExternalFactors   []string `json:"externalFactors" prompt:"optional" prompt_desc:"outside influences on outcomes"`

	InterventionType string `json:"interventionType,omitempty" prompt:"optional"`
	Sector           string `json:"sector,omitempty" prompt:"optional"`
	GeographicScope  string `json:"geographicScope,omitempty" prompt:"optional"`

	CreatedAt time.Time `json:"createdAt,omitempty" prompt:"-"`
}

// Present reports scalar presence under the trimming rule.
func Present(s string) bool { return strings.TrimSpace(s) != "" }

// IsZero reports whether no field of the theory carries data.
func (t TheoryOfChange) IsZero() bool {
	if Present(t.TargetPopulation) || Present(t.ProblemDefinition) ||
		Present(t.InterventionType) || Present(t.Sector) || Present(t.GeographicScope) {
		return false
	}
	for _, list := range t.lists() {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

func (t TheoryOfChange) lists() [][]string {
	return [][]string{
		t.Activities, t.Outputs, t.ShortTermOutcomes,
		t.LongTermOutcomes, t.Impacts, t.Assumptions, t.ExternalFactors,
	}
}

// ReadinessLevel grades the completeness of a captured foundation.
type ReadinessLevel string

const (
	LevelExcellent    ReadinessLevel = "excellent"
	LevelGood         ReadinessLevel = "good"
	LevelBasic        ReadinessLevel = "basic"
	LevelInsufficient ReadinessLevel = "insufficient"
)

// FoundationReadiness is derived from one TheoryOfChange version and
// replaced whole on every recomputation.
type FoundationReadiness struct {
	OrganizationID    string         `json:"organizationId,omitempty"`
	TheoryID          string         `json:"theoryId,omitempty"`
	TheoryVersion     int            `json:"theoryVersion,omitempty"`
	CompletenessScore int            `json:"completenessScore"`
	Level             ReadinessLevel `json:"level"`

	BasicAccess        bool `json:"basicAccess"`
	IntermediateAccess bool `json:"intermediateAccess"`
	AdvancedAccess     bool `json:"advancedAccess"`

	MissingElements []string `json:"missingElements"`
	StrengthAreas   []string `json:"strengthAreas"`
	Recommendations []string `json:"recommendations"`

	ComputedAt time.Time `json:"computedAt,omitempty"`
}
