package theory

import (
	"reflect"
	"testing"
)

func TestMergeScalarNoRegression(t *testing.T) {
	existing := TheoryOfChange{TargetPopulation: "rural youth"}
	out := Merge(&existing, TheoryOfChange{TargetPopulation: ""})
	if out.TargetPopulation != "rural youth" {
		t.Fatalf("empty incoming clobbered scalar: %q", out.TargetPopulation)
	}

	out = Merge(&existing, TheoryOfChange{TargetPopulation: "  urban youth  "})
	if out.TargetPopulation != "urban youth" {
		t.Fatalf("non-empty incoming did not overwrite: %q", out.TargetPopulation)
	}
}

func TestMergeListReplacesWhole(t *testing.T) {
	existing := TheoryOfChange{Activities: []string{"tutoring", "mentoring"}}

	out := Merge(&existing, TheoryOfChange{Activities: nil})
	if !reflect.DeepEqual(out.Activities, []string{"tutoring", "mentoring"}) {
		t.Fatalf("empty incoming clobbered list: %v", out.Activities)
	}

	out = Merge(&existing, TheoryOfChange{Activities: []string{"workshops", "", "  coaching "}})
	if !reflect.DeepEqual(out.Activities, []string{"workshops", "coaching"}) {
		t.Fatalf("list not replaced whole with cleaned entries: %v", out.Activities)
	}
}

func TestMergeIdempotent(t *testing.T) {
	existing := TheoryOfChange{
		TargetPopulation: "smallholder farmers",
		Activities:       []string{"training"},
	}
	incoming := TheoryOfChange{
		ProblemDefinition: "low crop yields",
		Outputs:           []string{"farmers trained", "demo plots"},
	}

	once := Merge(&existing, incoming)
	twice := Merge(&once, incoming)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeNilExisting(t *testing.T) {
	out := Merge(nil, TheoryOfChange{TargetPopulation: "refugee families"})
	if out.TargetPopulation != "refugee families" {
		t.Fatalf("merge into nil lost data: %+v", out)
	}
}

func TestIsZero(t *testing.T) {
	if !(TheoryOfChange{}).IsZero() {
		t.Fatal("empty theory should be zero")
	}
	if (TheoryOfChange{Sector: "education"}).IsZero() {
		t.Fatal("theory with sector should not be zero")
	}
	if (TheoryOfChange{Assumptions: []string{"stable funding"}}).IsZero() {
		t.Fatal("theory with assumptions should not be zero")
	}
}
