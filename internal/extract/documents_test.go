package extract

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwork/internal/llmclient"
)

type fakeLLM struct {
	content string
	err     error
	calls   int
	lastReq llmclient.Request
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }
func (f *fakeLLM) Complete(ctx context.Context, req llmclient.Request) (llmclient.Result, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return llmclient.Result{}, f.err
	}
	return llmclient.Result{Content: f.content, TokensUsed: 42}, nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func sampleCorpus() []Document {
	return []Document{
		{Filename: "annual-report.pdf", Content: "We serve rural smallholder farmers...", MimeType: "application/pdf"},
		{Filename: "strategy.md", Content: "Our training program targets low yields.", MimeType: "text/markdown"},
	}
}

func TestParseDocumentsHappyPath(t *testing.T) {
	llm := &fakeLLM{content: `{
		"targetPopulation": "rural smallholder farmers",
		"problemDefinition": "low crop yields",
		"activities": ["agronomy training"],
		"outputs": ["farmers trained"],
		"shortTermOutcomes": ["improved practices"],
		"longTermOutcomes": ["higher yields"],
		"impacts": ["food security"],
		"confidence": 0.85,
		"gaps": ["assumptions"],
		"questions": ["What assumptions underlie the yield increase?"]
	}`}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())

	require.Equal(t, 1, llm.calls, "exactly one completion call per invocation")
	assert.Equal(t, "rural smallholder farmers", out.Extracted.TargetPopulation)
	assert.InDelta(t, 0.85, out.Confidence, 1e-9)
	assert.False(t, out.NeedsGuidedCompletion, "complete extraction with one gap should not need guided completion")
	assert.Equal(t, []string{"assumptions"}, out.Gaps)
}

func TestParseDocumentsCodeFencedResponse(t *testing.T) {
	llm := &fakeLLM{content: "```json\n{\"targetPopulation\":\"students\",\"confidence\":0.6}\n```"}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())
	assert.Equal(t, "students", out.Extracted.TargetPopulation)
	assert.True(t, out.NeedsGuidedCompletion, "20/100 completeness is below the guided floor")
}

func TestParseDocumentsDerivedConfidenceDefault(t *testing.T) {
	llm := &fakeLLM{content: `{"targetPopulation":"students"}`}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())
	assert.Equal(t, "students", out.Extracted.TargetPopulation)
	assert.InDelta(t, 0.2, out.Confidence, 1e-9,
		"omitted confidence derives from the 20/100 completeness of the extracted theory")
}

func TestParseDocumentsEmptyCorpus(t *testing.T) {
	llm := &fakeLLM{content: `{}`}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), nil)

	assert.Equal(t, 0, llm.calls, "no completion call for an empty corpus")
	assert.LessOrEqual(t, out.Confidence, 0.3)
	assert.True(t, out.Extracted.IsZero())
	assert.True(t, out.NeedsGuidedCompletion)
	assert.NotEmpty(t, out.Gaps)
	assert.NotEmpty(t, out.Questions)
}

func TestParseDocumentsMalformedJSONDegrades(t *testing.T) {
	llm := &fakeLLM{content: "Sorry, I cannot produce JSON today."}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())

	assert.InDelta(t, FallbackConfidence, out.Confidence, 1e-9)
	assert.True(t, out.Extracted.IsZero())
	assert.True(t, out.NeedsGuidedCompletion)
	assert.NotEmpty(t, out.Questions, "degraded result must still hand the guided pathway something to ask")
}

func TestParseDocumentsServiceErrorDegrades(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())
	assert.InDelta(t, FallbackConfidence, out.Confidence, 1e-9)
	assert.True(t, out.NeedsGuidedCompletion)
}

func TestParseDocumentsGapCeiling(t *testing.T) {
	// Full theory but four gaps: the gap ceiling alone must trigger
	// guided completion.
	llm := &fakeLLM{content: `{
		"targetPopulation": "farmers",
		"problemDefinition": "yields",
		"activities": ["a"], "outputs": ["b"],
		"shortTermOutcomes": ["c"], "longTermOutcomes": ["d"], "impacts": ["e"],
		"confidence": 0.9,
		"gaps": ["g1","g2","g3","g4"]
	}`}
	a := NewAdapter(llm, quietLogger())

	out := a.ParseDocuments(context.Background(), sampleCorpus())
	assert.True(t, out.NeedsGuidedCompletion)
}

func TestParseDocumentsPromptEnumeratesFields(t *testing.T) {
	llm := &fakeLLM{content: `{}`}
	a := NewAdapter(llm, quietLogger())
	a.ParseDocuments(context.Background(), sampleCorpus())

	require.Equal(t, 1, llm.calls)
	for _, field := range []string{
		"targetPopulation", "problemDefinition", "activities", "outputs",
		"shortTermOutcomes", "longTermOutcomes", "impacts", "assumptions", "externalFactors",
	} {
		assert.Contains(t, llm.lastReq.SystemPrompt, field)
	}
}
