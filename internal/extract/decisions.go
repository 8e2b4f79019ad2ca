package extract

import (
	"context"
	"fmt"

	"groundwork/internal/decision"
	"groundwork/internal/jsonutil"
	"groundwork/internal/llmclient"
	"groundwork/internal/prompt"
	"groundwork/internal/theory"
)

// DecisionExtraction is the decision-mapping variant of Extraction.
type DecisionExtraction struct {
	Questions  []decision.Question `json:"questions"`
	Confidence float64             `json:"confidence"`
	Gaps       []string            `json:"gaps"`
}

var fallbackDecisionGaps = []string{
	"strategic decisions the data must inform",
	"how often each decision recurs",
}

type decisionEnvelope struct {
	Questions  []decision.Question `json:"questions" prompt_type:"[]object" prompt_desc:"decisions the collected data must inform"`
	Confidence float64             `json:"confidence" prompt_desc:"0..1 self-assessment of extraction quality"`
	Gaps       []string            `json:"gaps" prompt_desc:"decision areas the text does not cover"`
}

// ParseDecisionText turns free text about upcoming decisions into typed
// decision questions. Same degradation contract as ParseDocuments.
func (a *Adapter) ParseDecisionText(ctx context.Context, text string, toc theory.TheoryOfChange) DecisionExtraction {
	if !theory.Present(text) {
		return a.decisionFallback("empty text")
	}

	fields, err := prompt.FieldsFromStruct(decisionEnvelope{})
	if err != nil {
		return a.decisionFallback(fmt.Sprintf("build prompt: %v", err))
	}
	spec := prompt.ApplyPresets(prompt.Spec{
		Purpose: "Identify the decisions this organization needs its measurement data to inform.",
		Background: "Decisions are classified as strategic, operational, tactical, or adaptive. " +
			"Each carries an urgency, a recurrence frequency, and typed evidence needs.",
		Input: map[string]any{
			"targetPopulation":  toc.TargetPopulation,
			"problemDefinition": toc.ProblemDefinition,
			"activities":        toc.Activities,
		},
		OutputFields: fields,
		OutputFormat: "A single JSON object with exactly the fields listed above.",
	}, prompt.PresetStrictJSON(), prompt.PresetNoInvent())

	systemPrompt, err := prompt.Build(spec)
	if err != nil {
		return a.decisionFallback(fmt.Sprintf("render prompt: %v", err))
	}

	res, err := a.llm.Complete(ctx, llmclient.Request{
		Messages:     []llmclient.Message{{Role: llmclient.RoleUser, Content: text}},
		SystemPrompt: systemPrompt,
		MaxTokens:    2048,
	})
	if err != nil {
		return a.decisionFallback(fmt.Sprintf("completion call: %v", err))
	}

	var env decisionEnvelope
	if err := jsonutil.UnmarshalFlex([]byte(res.Content), &env); err != nil {
		return a.decisionFallback(fmt.Sprintf("parse response: %v", err))
	}

	out := DecisionExtraction{
		Confidence: env.Confidence,
		Gaps:       theory.CleanList(env.Gaps),
	}
	if out.Gaps == nil {
		out.Gaps = []string{}
	}
	for _, q := range env.Questions {
		if !theory.Present(q.Question) {
			continue
		}
		if !decision.ValidType(q.DecisionType) {
			q.DecisionType = decision.TypeOperational
		}
		out.Questions = append(out.Questions, q)
	}
	// Document extraction derives an omitted confidence from theory
	// completeness; a question list has no such measure, so it gets a
	// neutral default.
	if out.Confidence <= 0 && len(out.Questions) > 0 {
		out.Confidence = 0.5
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	if len(out.Questions) == 0 {
		return a.decisionFallback("no usable questions in response")
	}
	return out
}

// Questions satisfies the decision engine's Extractor interface.
func (a *Adapter) Questions(ctx context.Context, text string, toc theory.TheoryOfChange) []decision.Question {
	return a.ParseDecisionText(ctx, text, toc).Questions
}

func (a *Adapter) decisionFallback(reason string) DecisionExtraction {
	a.logger.Printf("extract: degraded decision parse (%s)", reason)
	return DecisionExtraction{
		Questions:  nil,
		Confidence: FallbackConfidence,
		Gaps:       append([]string(nil), fallbackDecisionGaps...),
	}
}
