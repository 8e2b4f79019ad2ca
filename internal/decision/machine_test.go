package decision

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwork/internal/fault"
	"groundwork/internal/ids"
	"groundwork/internal/theory"
)

type stubStore struct {
	sessions   map[string]MappingSession
	questions  map[string]Question
	evolutions []Evolution
	theories   map[string]theory.TheoryOfChange

	finalizeErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		sessions:  map[string]MappingSession{},
		questions: map[string]Question{},
		theories:  map[string]theory.TheoryOfChange{},
	}
}

func (s *stubStore) CreateMappingSession(_ context.Context, sess MappingSession) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubStore) GetMappingSession(_ context.Context, id string) (MappingSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return MappingSession{}, fault.NotFoundf("mapping session %s", id)
	}
	return sess, nil
}

func (s *stubStore) ApplyMappingTurn(_ context.Context, id string, update func(*MappingSession) error) (MappingSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return MappingSession{}, fault.NotFoundf("mapping session %s", id)
	}
	if err := update(&sess); err != nil {
		return MappingSession{}, err
	}
	s.sessions[id] = sess
	return sess, nil
}

func (s *stubStore) FinalizeMappingTurn(_ context.Context, id string, questions []Question, evolutions []Evolution, update func(*MappingSession) error) (MappingSession, error) {
	if s.finalizeErr != nil {
		return MappingSession{}, s.finalizeErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return MappingSession{}, fault.NotFoundf("mapping session %s", id)
	}
	if err := update(&sess); err != nil {
		return MappingSession{}, err
	}
	s.sessions[id] = sess
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	s.evolutions = append(s.evolutions, evolutions...)
	return sess, nil
}

func (s *stubStore) GetQuestion(_ context.Context, id string) (Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return Question{}, fault.NotFoundf("question %s", id)
	}
	return q, nil
}

func (s *stubStore) UpdateQuestion(_ context.Context, q Question) error {
	s.questions[q.ID] = q
	return nil
}

func (s *stubStore) AppendEvolution(_ context.Context, ev Evolution) error {
	s.evolutions = append(s.evolutions, ev)
	return nil
}

func (s *stubStore) GetLiveTheory(_ context.Context, orgID string) (theory.TheoryOfChange, error) {
	t, ok := s.theories[orgID]
	if !ok {
		return theory.TheoryOfChange{}, fault.NotFoundf("theory for org %s", orgID)
	}
	return t, nil
}

type stubExtractor struct {
	out []Question
}

func (e *stubExtractor) Questions(_ context.Context, text string, _ theory.TheoryOfChange) []Question {
	return e.out
}

func newTestEngine(t *testing.T, store Store, ex Extractor) *Engine {
	t.Helper()
	gen, err := ids.NewGenerator(2)
	require.NoError(t, err)
	return NewEngine(store, ex, gen, log.New(io.Discard, "", 0))
}

func TestStartRequiresTheory(t *testing.T) {
	store := newStubStore()
	e := newTestEngine(t, store, &stubExtractor{})

	_, _, err := e.Start(context.Background(), "org-1")
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err), "missing theory is client-correctable, got %v", err)

	store.theories["org-1"] = theory.TheoryOfChange{TargetPopulation: "farmers"}
	sess, prompt, err := e.Start(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, StepStrategic, sess.CurrentStep)
	assert.NotEmpty(t, prompt)
}

func TestMappingStepOrderFixed(t *testing.T) {
	want := []MappingStep{StepOperational, StepEvidence, StepDataGaps, StepPrioritization, MappingComplete}
	s := StepStrategic
	for i := 0; i < 5; i++ {
		s = NextMapping(s)
		if s != want[i] {
			t.Fatalf("transition %d = %s, want %s", i, s, want[i])
		}
	}
	if NextMapping(MappingComplete) != MappingComplete {
		t.Fatal("complete must be terminal")
	}
}

func TestMappingPercentMonotone(t *testing.T) {
	prev := -1
	s := StepStrategic
	for {
		p := MappingPercent(s)
		if p < prev {
			t.Fatalf("percent decreased at %s", s)
		}
		prev = p
		if s == MappingComplete {
			break
		}
		s = NextMapping(s)
	}
	if prev != 100 {
		t.Fatalf("final percent = %d", prev)
	}
}

func TestFullMappingRun(t *testing.T) {
	store := newStubStore()
	store.theories["org-1"] = theory.TheoryOfChange{TargetPopulation: "farmers"}
	ex := &stubExtractor{out: []Question{
		{Question: "Should we expand to a second region?", DecisionType: TypeStrategic, Urgency: "medium"},
	}}
	e := newTestEngine(t, store, ex)
	ctx := context.Background()

	sess, _, err := e.Start(ctx, "org-1")
	require.NoError(t, err)

	answers := []string{
		"We are weighing regional expansion.",
		"We adjust staffing every quarter.",
		"outcome data by region\ncost per participant",
		"we have no regional outcome data",
		"expand to a second region",
	}
	var last MappingResult
	for i, answer := range answers {
		last, err = e.Advance(ctx, sess.ID, answer)
		require.NoError(t, err, "turn %d", i)
	}

	assert.True(t, last.Completed)
	assert.Equal(t, MappingComplete, last.Session.CurrentStep)
	assert.Equal(t, 100, last.Session.CompletionPercentage)

	// Two extraction turns, one question each.
	require.Len(t, last.Questions, 2)
	assert.Equal(t, "high", last.Questions[0].Urgency, "prioritized question urgency bumped")
	assert.NotEmpty(t, last.Questions[0].EvidenceNeeds, "evidence lines attached in order")
	assert.Len(t, store.questions, 2, "captured questions persisted with the final turn")
	assert.Len(t, store.evolutions, 2, "a created evolution row per question")
	for _, ev := range store.evolutions {
		assert.Equal(t, "created", ev.ChangeType)
		assert.NotEmpty(t, ev.QuestionID)
	}
	assert.Empty(t, e.locks, "completed sessions drop their lock entry")
}

func TestFailedFinalTurnKeepsSessionOpenAndIsRetryable(t *testing.T) {
	store := newStubStore()
	store.theories["org-1"] = theory.TheoryOfChange{TargetPopulation: "farmers"}
	ex := &stubExtractor{out: []Question{
		{Question: "Should we expand to a second region?", DecisionType: TypeStrategic, Urgency: "medium"},
	}}
	e := newTestEngine(t, store, ex)
	ctx := context.Background()

	sess, _, err := e.Start(ctx, "org-1")
	require.NoError(t, err)
	for _, answer := range []string{
		"We are weighing regional expansion.",
		"We adjust staffing every quarter.",
		"outcome data by region\ncost per participant",
		"we have no regional outcome data",
	} {
		_, err = e.Advance(ctx, sess.ID, answer)
		require.NoError(t, err)
	}

	store.finalizeErr = errors.New("store unavailable")
	_, err = e.Advance(ctx, sess.ID, "expand to a second region")
	require.Error(t, err)

	after := store.sessions[sess.ID]
	assert.Equal(t, StepPrioritization, after.CurrentStep,
		"a failed final turn must not leave the session complete")
	assert.Empty(t, store.questions, "no questions without a committed final turn")
	assert.Empty(t, store.evolutions)

	store.finalizeErr = nil
	res, err := e.Advance(ctx, sess.ID, "expand to a second region")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	require.Len(t, res.Questions, 2)
	assert.Len(t, store.questions, 2)
	assert.Len(t, store.evolutions, 2)
}

func TestAdvancePastCompleteFails(t *testing.T) {
	store := newStubStore()
	store.theories["org-1"] = theory.TheoryOfChange{TargetPopulation: "x"}
	e := newTestEngine(t, store, &stubExtractor{})
	ctx := context.Background()

	sess, _, err := e.Start(ctx, "org-1")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = e.Advance(ctx, sess.ID, "answer")
		require.NoError(t, err)
	}
	_, err = e.Advance(ctx, sess.ID, "extra")
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}

func TestUpdateQuestionAppendsEvolution(t *testing.T) {
	store := newStubStore()
	store.theories["org-1"] = theory.TheoryOfChange{TargetPopulation: "x"}
	e := newTestEngine(t, store, &stubExtractor{})
	ctx := context.Background()

	q := Question{ID: "q-1", Question: "old phrasing", DecisionType: TypeTactical}
	store.questions[q.ID] = q

	updated, err := e.UpdateQuestion(ctx, "q-1", "rephrased", func(q *Question) {
		q.Question = "new phrasing"
	})
	require.NoError(t, err)
	assert.Equal(t, "new phrasing", updated.Question)

	require.Len(t, store.evolutions, 1)
	ev := store.evolutions[0]
	assert.Equal(t, "old phrasing", ev.Previous)
	assert.Equal(t, "new phrasing", ev.Current)
	assert.Equal(t, "rephrased", ev.ChangeType)
}
