package prompt

import (
	"strings"
	"testing"
)

type sampleOut struct {
	TargetPopulation string   `json:"targetPopulation" prompt_desc:"who the intervention serves"`
	Activities       []string `json:"activities"`
	Confidence       float64  `json:"confidence" prompt:"optional"`
	Internal         string   `json:"-"`
	skipped          string   //nolint:unused
}

func TestFieldsFromStruct(t *testing.T) {
	fields, err := FieldsFromStruct(sampleOut{})
	if err != nil {
		t.Fatalf("FieldsFromStruct error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(fields), fields)
	}
	if fields[0].Name != "targetPopulation" || fields[0].Type != "string" || !fields[0].Required {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[0].Description != "who the intervention serves" {
		t.Fatalf("description not picked up: %+v", fields[0])
	}
	if fields[1].Type != "[]string" {
		t.Fatalf("unexpected list type: %+v", fields[1])
	}
	if fields[2].Required {
		t.Fatalf("prompt:optional not honored: %+v", fields[2])
	}
}

func TestBuildSections(t *testing.T) {
	spec := ApplyPresets(Spec{
		Purpose:      "Extract a theory of change from documents.",
		Input:        map[string]any{"documents": []string{"annual report"}},
		OutputFields: MustFieldsFromStruct(sampleOut{}),
		OutputFormat: "Single JSON object.",
	}, PresetStrictJSON())

	out, err := Build(spec)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	for _, section := range []string{"[PURPOSE]", "[INPUT]", "[OUTPUT]", "[CONSTRAINTS]", "[OUTPUT_FORMAT]"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %s in:\n%s", section, out)
		}
	}
	if strings.Contains(out, "[BACKGROUND]") {
		t.Errorf("empty section rendered:\n%s", out)
	}
	if !strings.Contains(out, "Return strict JSON only.") {
		t.Errorf("preset constraint missing:\n%s", out)
	}
}

func TestBuildRejectsEmptySpec(t *testing.T) {
	if _, err := Build(Spec{}); err == nil {
		t.Fatal("expected error for empty spec")
	}
	if _, err := Build(Spec{Purpose: "p"}); err == nil {
		t.Fatal("expected error for missing output fields")
	}
}
