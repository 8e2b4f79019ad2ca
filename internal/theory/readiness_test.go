package theory

import (
	"reflect"
	"testing"
)

func fullTheory() TheoryOfChange {
	return TheoryOfChange{
		TargetPopulation:  "first-generation students",
		ProblemDefinition: "low college completion",
		Activities:        []string{"coaching"},
		Outputs:           []string{"students coached"},
		ShortTermOutcomes: []string{"improved grades"},
		LongTermOutcomes:  []string{"degree completion"},
		Impacts:           []string{"economic mobility"},
	}
}

func TestCompletenessIsSumOfPresentWeights(t *testing.T) {
	if got := Completeness(TheoryOfChange{}); got != 0 {
		t.Fatalf("empty theory score = %d, want 0", got)
	}
	if got := Completeness(fullTheory()); got != 100 {
		t.Fatalf("full theory score = %d, want 100", got)
	}

	partial := TheoryOfChange{
		TargetPopulation: "students", // 20
		Activities:       []string{"coaching"}, // 15
		Impacts:          []string{"mobility"}, // 10
	}
	if got := Completeness(partial); got != 45 {
		t.Fatalf("partial score = %d, want 45", got)
	}
}

func TestCompletenessOrderInvariant(t *testing.T) {
	// Build the same theory through merges in two different orders.
	a := Merge(nil, TheoryOfChange{TargetPopulation: "students"})
	a = Merge(&a, TheoryOfChange{Activities: []string{"coaching"}})

	b := Merge(nil, TheoryOfChange{Activities: []string{"coaching"}})
	b = Merge(&b, TheoryOfChange{TargetPopulation: "students"})

	if Completeness(a) != Completeness(b) {
		t.Fatalf("score depends on set order: %d vs %d", Completeness(a), Completeness(b))
	}
}

func TestLevelBoundariesExact(t *testing.T) {
	cases := []struct {
		score int
		want  ReadinessLevel
	}{
		{49, LevelInsufficient},
		{50, LevelBasic},
		{69, LevelBasic},
		{70, LevelGood},
		{89, LevelGood},
		{90, LevelExcellent},
		{100, LevelExcellent},
		{0, LevelInsufficient},
	}
	for _, c := range cases {
		if got := LevelFor(c.score); got != c.want {
			t.Errorf("LevelFor(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestAccessFlags(t *testing.T) {
	cases := []struct {
		level ReadinessLevel
		b, i, a bool
	}{
		{LevelExcellent, true, true, true},
		{LevelGood, true, true, false},
		{LevelBasic, true, false, false},
		{LevelInsufficient, false, false, false},
	}
	for _, c := range cases {
		b, i, a := AccessFlags(c.level)
		if b != c.b || i != c.i || a != c.a {
			t.Errorf("AccessFlags(%s) = %v,%v,%v", c.level, b, i, a)
		}
	}
}

func TestScoreMissingAndStrengths(t *testing.T) {
	th := TheoryOfChange{
		TargetPopulation:  "students",
		ProblemDefinition: "dropout rates",
	}
	r := Score(th)
	if r.CompletenessScore != 35 {
		t.Fatalf("score = %d, want 35", r.CompletenessScore)
	}
	if r.Level != LevelInsufficient {
		t.Fatalf("level = %s, want insufficient", r.Level)
	}
	wantStrengths := []string{"targetPopulation", "problemDefinition"}
	if !reflect.DeepEqual(r.StrengthAreas, wantStrengths) {
		t.Fatalf("strengths = %v", r.StrengthAreas)
	}
	wantMissing := []string{"activities", "outputs", "shortTermOutcomes", "longTermOutcomes", "impacts"}
	if !reflect.DeepEqual(r.MissingElements, wantMissing) {
		t.Fatalf("missing = %v", r.MissingElements)
	}
	// one recommendation per missing dimension plus the guided-flow line
	if len(r.Recommendations) != len(wantMissing)+1 {
		t.Fatalf("recommendations = %v", r.Recommendations)
	}
}

func TestScoreFullTheoryReferencesVersion(t *testing.T) {
	th := fullTheory()
	th.ID = "toc-1"
	th.Version = 3
	r := Score(th)
	if r.TheoryID != "toc-1" || r.TheoryVersion != 3 {
		t.Fatalf("readiness does not reference theory version: %+v", r)
	}
	if r.Level != LevelExcellent || !r.AdvancedAccess {
		t.Fatalf("full theory not excellent: %+v", r)
	}
	if len(r.MissingElements) != 0 || len(r.Recommendations) != 0 {
		t.Fatalf("full theory should have no gaps: %+v", r)
	}
}
