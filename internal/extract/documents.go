package extract

import (
	"context"
	"fmt"
	"log"
	"strings"

	"groundwork/internal/jsonutil"
	"groundwork/internal/llmclient"
	"groundwork/internal/prompt"
	"groundwork/internal/theory"
)

// Document is one uploaded file of the extraction corpus.
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

// Extraction is the adapter's structured verdict on a corpus.
type Extraction struct {
	Extracted             theory.TheoryOfChange `json:"extracted"`
	Confidence            float64               `json:"confidence"`
	NeedsGuidedCompletion bool                  `json:"needsGuidedCompletion"`
	Gaps                  []string              `json:"gaps"`
	Questions             []string              `json:"questions"`
}

// Tunable design constants, pinned by tests. A corpus that scores
// below the completeness floor or leaves too many gaps routes the user
// into the guided pathway.
const (
	FallbackConfidence      = 0.3
	guidedCompletenessFloor = 70
	guidedGapCeiling        = 3
)

var fallbackGaps = []string{
	"target population",
	"problem definition",
	"causal chain from activities to impact",
}

var fallbackQuestions = []string{
	"Who does your organization serve?",
	"What problem are you trying to solve?",
	"What activities do you carry out, and what change do they lead to?",
}

// extractionEnvelope is the JSON shape the completion service is asked
// to produce. The theory fields are promoted so the prompt schema and
// the parse target cannot drift apart.
type extractionEnvelope struct {
	theory.TheoryOfChange
	Confidence float64  `json:"confidence" prompt_desc:"0..1 self-assessment of extraction quality"`
	Gaps       []string `json:"gaps" prompt_desc:"theory elements the documents do not cover"`
	Questions  []string `json:"questions" prompt_desc:"follow-up questions that would close the gaps"`
}

// Adapter turns free-text corpora into partial structured payloads via
// the text completion service. Failures degrade to a low-confidence
// empty result; the adapter never surfaces extraction errors.
type Adapter struct {
	llm    llmclient.Client
	logger *log.Logger
}

func NewAdapter(llm llmclient.Client, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{llm: llm, logger: logger}
}

// ParseDocuments issues at most one completion call for the whole
// corpus and coerces the response into typed fields.
func (a *Adapter) ParseDocuments(ctx context.Context, corpus []Document) Extraction {
	if len(nonEmpty(corpus)) == 0 {
		return a.fallback("empty corpus")
	}

	spec, err := documentPromptSpec(corpus)
	if err != nil {
		return a.fallback(fmt.Sprintf("build prompt: %v", err))
	}
	systemPrompt, err := prompt.Build(spec)
	if err != nil {
		return a.fallback(fmt.Sprintf("render prompt: %v", err))
	}

	res, err := a.llm.Complete(ctx, llmclient.Request{
		Messages: []llmclient.Message{
			{Role: llmclient.RoleUser, Content: corpusText(corpus)},
		},
		SystemPrompt: systemPrompt,
		MaxTokens:    4096,
	})
	if err != nil {
		return a.fallback(fmt.Sprintf("completion call: %v", err))
	}

	var env extractionEnvelope
	if err := jsonutil.UnmarshalFlex([]byte(res.Content), &env); err != nil {
		return a.fallback(fmt.Sprintf("parse response: %v", err))
	}
	return a.finish(env)
}

func (a *Adapter) finish(env extractionEnvelope) Extraction {
	out := Extraction{
		Extracted:  normalize(env.TheoryOfChange),
		Confidence: env.Confidence,
		Gaps:       theory.CleanList(env.Gaps),
		Questions:  theory.CleanList(env.Questions),
	}
	if out.Gaps == nil {
		out.Gaps = []string{}
	}
	if out.Questions == nil {
		out.Questions = []string{}
	}

	completeness := theory.Completeness(out.Extracted)
	if out.Confidence <= 0 {
		out.Confidence = float64(completeness) / 100
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	out.NeedsGuidedCompletion = completeness < guidedCompletenessFloor || len(out.Gaps) > guidedGapCeiling
	return out
}

// fallback is the degraded result for any extraction failure. One
// convention everywhere: confidence 0.3, empty payload, fixed gaps.
func (a *Adapter) fallback(reason string) Extraction {
	a.logger.Printf("extract: degraded document parse (%s)", reason)
	return Extraction{
		Extracted:             theory.TheoryOfChange{},
		Confidence:            FallbackConfidence,
		NeedsGuidedCompletion: true,
		Gaps:                  append([]string(nil), fallbackGaps...),
		Questions:             append([]string(nil), fallbackQuestions...),
	}
}

func documentPromptSpec(corpus []Document) (prompt.Spec, error) {
	fields, err := prompt.FieldsFromStruct(extractionEnvelope{})
	if err != nil {
		return prompt.Spec{}, err
	}
	names := make([]string, 0, len(corpus))
	for _, d := range corpus {
		names = append(names, d.Filename)
	}
	return prompt.ApplyPresets(prompt.Spec{
		Purpose: "Extract a structured theory of change from the organization's documents.",
		Background: "A theory of change links a target population and problem through " +
			"activities, outputs, and outcomes to long-term impact, together with the " +
			"assumptions and external factors the causal chain depends on.",
		Input:        map[string]any{"documents": names},
		OutputFields: fields,
		OutputFormat: "A single JSON object with exactly the fields listed above.",
	}, prompt.PresetStrictJSON(), prompt.PresetNoInvent()), nil
}

func corpusText(corpus []Document) string {
	var b strings.Builder
	for _, d := range nonEmpty(corpus) {
		fmt.Fprintf(&b, "--- %s (%s) ---\n%s\n\n", d.Filename, d.MimeType, d.Content)
	}
	return strings.TrimSpace(b.String())
}

func nonEmpty(corpus []Document) []Document {
	out := make([]Document, 0, len(corpus))
	for _, d := range corpus {
		if strings.TrimSpace(d.Content) != "" {
			out = append(out, d)
		}
	}
	return out
}

func normalize(t theory.TheoryOfChange) theory.TheoryOfChange {
	// Route through the assembler so extracted payloads obey the same
	// trimming rules as guided answers.
	return theory.Merge(nil, t)
}
