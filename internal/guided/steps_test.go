package guided

import "testing"

func TestNextVisitsEveryStepOnce(t *testing.T) {
	seen := map[Step]bool{}
	s := StepImpactVision
	for i := 0; i < TotalSteps(); i++ {
		if seen[s] {
			t.Fatalf("step %s visited twice", s)
		}
		seen[s] = true
		s = Next(s)
	}
	if s != StepComplete {
		t.Fatalf("after %d steps expected complete, got %s", TotalSteps(), s)
	}
	if Next(StepComplete) != StepComplete {
		t.Fatal("complete must be terminal")
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 distinct steps, saw %d", len(seen))
	}
}

func TestCompletionPercentMonotone(t *testing.T) {
	prev := -1
	s := StepImpactVision
	for {
		p := CompletionPercent(s)
		if p < prev {
			t.Fatalf("completion decreased at %s: %d < %d", s, p, prev)
		}
		prev = p
		if s == StepComplete {
			break
		}
		s = Next(s)
	}
	if CompletionPercent(StepComplete) != 100 {
		t.Fatalf("complete = %d, want 100", CompletionPercent(StepComplete))
	}
	if CompletionPercent(StepImpactVision) != 0 {
		t.Fatalf("first step = %d, want 0", CompletionPercent(StepImpactVision))
	}
}

func TestInterpretStringVsList(t *testing.T) {
	got := interpret(StepTargetPopulation, "  rural youth aged 12-18  ")
	if got.TargetPopulation != "rural youth aged 12-18" {
		t.Fatalf("scalar step not captured whole: %+v", got)
	}

	got = interpret(StepActivities, "tutoring\n\n  mentoring  \n")
	if len(got.Activities) != 2 || got.Activities[0] != "tutoring" || got.Activities[1] != "mentoring" {
		t.Fatalf("list step not split on lines: %v", got.Activities)
	}

	got = interpret(StepImpactVision, "economic mobility")
	if len(got.Impacts) != 1 || got.Impacts[0] != "economic mobility" {
		t.Fatalf("impact vision not mapped to impacts: %+v", got)
	}
}

func TestDefaultPromptsCoverAllSteps(t *testing.T) {
	prompts := DefaultPrompts()
	for _, s := range stepOrder {
		if prompts[s] == "" {
			t.Errorf("no prompt for step %s", s)
		}
	}
}
