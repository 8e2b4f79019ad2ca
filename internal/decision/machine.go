package decision

import (
	"context"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"groundwork/internal/fault"
	"groundwork/internal/ids"
	"groundwork/internal/theory"
)

// MappingStep is one state of the decision mapping machine. The
// sequence mirrors the guided theory machine: a static total order.
type MappingStep string

const (
	StepStrategic      MappingStep = "strategic"
	StepOperational    MappingStep = "operational"
	StepEvidence       MappingStep = "evidence_requirements"
	StepDataGaps       MappingStep = "data_gaps"
	StepPrioritization MappingStep = "prioritization"
	MappingComplete    MappingStep = "complete"
)

var mappingOrder = []MappingStep{
	StepStrategic,
	StepOperational,
	StepEvidence,
	StepDataGaps,
	StepPrioritization,
}

// NextMapping returns the step after current; complete is terminal.
func NextMapping(current MappingStep) MappingStep {
	for i, s := range mappingOrder {
		if s == current {
			if i+1 < len(mappingOrder) {
				return mappingOrder[i+1]
			}
			return MappingComplete
		}
	}
	return MappingComplete
}

// MappingPercent mirrors the guided machine: progress is positional.
func MappingPercent(s MappingStep) int {
	if s == MappingComplete {
		return 100
	}
	for i, step := range mappingOrder {
		if step == s {
			return int(math.Round(float64(i) / float64(len(mappingOrder)) * 100))
		}
	}
	return 0
}

// MappingTurn is one recorded exchange of a mapping session.
type MappingTurn struct {
	Step   MappingStep `json:"step"`
	Answer string      `json:"answer"`
	Reply  string      `json:"reply"`
	At     time.Time   `json:"at"`
}

// MappingSession accumulates decision questions across the five steps.
type MappingSession struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`

	CurrentStep          MappingStep   `json:"currentStep"`
	CompletionPercentage int           `json:"completionPercentage"`
	Captured             []Question    `json:"captured"`
	DataGaps             []string      `json:"dataGaps"`
	Priorities           []string      `json:"priorities"`
	Transcript           []MappingTurn `json:"transcript"`
	Active               bool          `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Extractor is the decision-text variant of the extraction adapter.
type Extractor interface {
	Questions(ctx context.Context, text string, toc theory.TheoryOfChange) []Question
}

// Store is the persistence surface for decision mapping.
type Store interface {
	CreateMappingSession(ctx context.Context, s MappingSession) error
	GetMappingSession(ctx context.Context, sessionID string) (MappingSession, error)
	// ApplyMappingTurn atomically applies the update to the session.
	ApplyMappingTurn(ctx context.Context, sessionID string, update func(*MappingSession) error) (MappingSession, error)
	// FinalizeMappingTurn is ApplyMappingTurn for the completing turn:
	// the questions and their evolution rows commit together with the
	// session update or not at all.
	FinalizeMappingTurn(ctx context.Context, sessionID string, questions []Question, evolutions []Evolution, update func(*MappingSession) error) (MappingSession, error)

	GetQuestion(ctx context.Context, questionID string) (Question, error)
	UpdateQuestion(ctx context.Context, q Question) error
	AppendEvolution(ctx context.Context, ev Evolution) error

	// GetLiveTheory backs the precondition that decision mapping only
	// runs once a theory exists.
	GetLiveTheory(ctx context.Context, orgID string) (theory.TheoryOfChange, error)
}

var mappingPrompts = map[MappingStep]string{
	StepStrategic:      "What big directional decisions is your organization facing in the next year or two? Funding, expansion, program mix.",
	StepOperational:    "What recurring operational decisions should your data inform? Staffing, scheduling, participant targeting.",
	StepEvidence:       "For each decision, what evidence would actually change your mind? One per line, in the order of the decisions above.",
	StepDataGaps:       "Which of those evidence needs can you not meet today? One per line.",
	StepPrioritization: "Which decisions matter most? Name them in priority order, one per line.",
}

const mappingCompletionMessage = "Decision mapping complete. Your measurement scope is now bounded by the decisions it must inform."

// Engine drives decision mapping. Structurally parallel to the guided
// theory machine, but each elicitation turn may call the completion
// service; that call happens before the session lock is taken so slow
// extractions never stall other sessions.
type Engine struct {
	store     Store
	extractor Extractor
	ids       *ids.Generator
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // entries are dropped when the session completes
}

func NewEngine(store Store, extractor Extractor, gen *ids.Generator, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:     store,
		extractor: extractor,
		ids:       gen,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lk, ok := e.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		e.locks[id] = lk
	}
	return lk
}

// releaseLock drops a session's lock entry; complete sessions reject
// further turns via the step check.
func (e *Engine) releaseLock(id string) {
	e.mu.Lock()
	delete(e.locks, id)
	e.mu.Unlock()
}

// Start opens a mapping session. A live theory is a hard precondition:
// decisions are mapped against the causal model, not in a vacuum.
func (e *Engine) Start(ctx context.Context, orgID string) (MappingSession, string, error) {
	if _, err := e.store.GetLiveTheory(ctx, orgID); err != nil {
		if fault.IsNotFound(err) {
			return MappingSession{}, "", fault.Validationf("organization %s has no theory of change yet; complete foundation capture first", orgID)
		}
		return MappingSession{}, "", err
	}
	now := time.Now().UTC()
	s := MappingSession{
		ID:             e.ids.New(),
		OrganizationID: orgID,
		CurrentStep:    mappingOrder[0],
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.store.CreateMappingSession(ctx, s); err != nil {
		return MappingSession{}, "", fault.Persistence("create mapping session", err)
	}
	return s, mappingPrompts[s.CurrentStep], nil
}

// MappingResult is what one mapping turn produces.
type MappingResult struct {
	Session   MappingSession
	Reply     string
	Completed bool
	// Persisted questions, set only on the completing turn.
	Questions []Question
}

// Advance processes one mapping turn. Extraction-backed steps run the
// completion call before acquiring the session lock; an optimistic
// step check inside the lock rejects turns that raced.
func (e *Engine) Advance(ctx context.Context, sessionID, answer string) (MappingResult, error) {
	before, err := e.store.GetMappingSession(ctx, sessionID)
	if err != nil {
		return MappingResult{}, err
	}
	if before.CurrentStep == MappingComplete {
		return MappingResult{}, fault.Validationf("mapping session %s is already complete", sessionID)
	}

	// Batch the slow call before taking the lock.
	var extracted []Question
	if before.CurrentStep == StepStrategic || before.CurrentStep == StepOperational {
		toc, err := e.store.GetLiveTheory(ctx, before.OrganizationID)
		if err != nil && !fault.IsNotFound(err) {
			return MappingResult{}, err
		}
		extracted = e.extractor.Questions(ctx, answer, toc)
		bias := TypeStrategic
		if before.CurrentStep == StepOperational {
			bias = TypeOperational
		}
		for i := range extracted {
			if !ValidType(extracted[i].DecisionType) {
				extracted[i].DecisionType = bias
			}
			extracted[i].OrganizationID = before.OrganizationID
		}
	}

	lk := e.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	step := before.CurrentStep
	nextStep := NextMapping(step)
	now := time.Now().UTC()
	reply := mappingPrompts[nextStep]
	if nextStep == MappingComplete {
		reply = mappingCompletionMessage
	}

	if nextStep == MappingComplete {
		// Captured only changes when the step advances, so the copy
		// taken here is consistent whenever the closure's step check
		// passes.
		captured := append([]Question(nil), before.Captured...)
		priorities := theory.CleanList(strings.Split(answer, "\n"))
		applyPriorities(captured, priorities)
		for i := range captured {
			captured[i].ID = e.ids.New()
			captured[i].CreatedAt = now
		}
		evolutions := make([]Evolution, 0, len(captured))
		for _, q := range captured {
			evolutions = append(evolutions, Evolution{
				ID:         e.ids.New(),
				QuestionID: q.ID,
				ChangeType: "created",
				Current:    q.Question,
				ChangedAt:  now,
			})
		}
		updated, err := e.store.FinalizeMappingTurn(ctx, sessionID, captured, evolutions, func(s *MappingSession) error {
			if s.CurrentStep != step {
				return fault.Validationf("mapping session %s advanced concurrently", sessionID)
			}
			s.Captured = captured
			s.Priorities = priorities
			s.Transcript = append(s.Transcript, MappingTurn{Step: step, Answer: answer, Reply: reply, At: now})
			s.CurrentStep = MappingComplete
			s.CompletionPercentage = 100
			s.UpdatedAt = now
			return nil
		})
		if err != nil {
			return MappingResult{}, err
		}
		e.releaseLock(sessionID)
		e.logger.Printf("decision: session %s complete, %d questions mapped", sessionID, len(captured))
		return MappingResult{Session: updated, Reply: reply, Completed: true, Questions: captured}, nil
	}

	updated, err := e.store.ApplyMappingTurn(ctx, sessionID, func(s *MappingSession) error {
		if s.CurrentStep != step {
			return fault.Validationf("mapping session %s advanced concurrently", sessionID)
		}
		switch step {
		case StepStrategic, StepOperational:
			s.Captured = append(s.Captured, extracted...)
		case StepEvidence:
			attachEvidence(s.Captured, theory.CleanList(strings.Split(answer, "\n")))
		case StepDataGaps:
			s.DataGaps = theory.CleanList(strings.Split(answer, "\n"))
		}
		s.Transcript = append(s.Transcript, MappingTurn{Step: step, Answer: answer, Reply: reply, At: now})
		s.CurrentStep = nextStep
		s.CompletionPercentage = MappingPercent(nextStep)
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return MappingResult{}, err
	}
	return MappingResult{Session: updated, Reply: reply}, nil
}

// UpdateQuestion applies a semantic change to a stored question and
// appends the corresponding evolution row. History is append-only.
func (e *Engine) UpdateQuestion(ctx context.Context, questionID, changeType string, update func(*Question)) (Question, error) {
	q, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return Question{}, err
	}
	previous := q.Question
	update(&q)
	if err := e.store.UpdateQuestion(ctx, q); err != nil {
		return Question{}, fault.Persistence("update question", err)
	}
	ev := Evolution{
		ID:         e.ids.New(),
		QuestionID: q.ID,
		ChangeType: changeType,
		Previous:   previous,
		Current:    q.Question,
		ChangedAt:  time.Now().UTC(),
	}
	if err := e.store.AppendEvolution(ctx, ev); err != nil {
		return Question{}, fault.Persistence("append evolution", err)
	}
	return q, nil
}

// attachEvidence pairs evidence lines with captured questions in
// order; surplus lines land on the last question.
func attachEvidence(questions []Question, lines []string) {
	if len(questions) == 0 {
		return
	}
	for i, line := range lines {
		idx := i
		if idx >= len(questions) {
			idx = len(questions) - 1
		}
		questions[idx].EvidenceNeeds = append(questions[idx].EvidenceNeeds, EvidenceNeed{Description: line})
	}
}

// applyPriorities bumps urgency for questions the user named first.
func applyPriorities(questions []Question, priorities []string) {
	limit := len(priorities)
	if limit > 3 {
		limit = 3
	}
	for _, p := range priorities[:limit] {
		lower := strings.ToLower(p)
		for i := range questions {
			if strings.Contains(strings.ToLower(questions[i].Question), lower) {
				questions[i].Urgency = "high"
			}
		}
	}
}
