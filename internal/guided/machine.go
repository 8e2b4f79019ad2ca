package guided

import (
	"context"
	"log"
	"sync"
	"time"

	"groundwork/internal/fault"
	"groundwork/internal/ids"
	"groundwork/internal/llmclient"
	"groundwork/internal/theory"
)

// Store is the persistence surface the machine needs. Implementations
// live in internal/store; tests supply doubles.
type Store interface {
	// ApplyTurn atomically appends the turn's messages and applies the
	// session update. Nothing persists if any part fails.
	ApplyTurn(ctx context.Context, sessionID string, msgs []Message, update func(*Session) error) (Session, error)
	// FinalizeTurn is ApplyTurn for the completing turn: it
	// additionally persists t as a new append-only theory version
	// (version assigned by the store) and replaces the stored
	// readiness with score applied to the persisted record. All of it
	// commits together or not at all.
	FinalizeTurn(ctx context.Context, sessionID string, msgs []Message, t theory.TheoryOfChange, score func(theory.TheoryOfChange) theory.FoundationReadiness, update func(*Session) error) (Session, theory.TheoryOfChange, theory.FoundationReadiness, error)
	CreateSession(ctx context.Context, s Session, opening Message) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
}

// TurnResult is what one user turn produces.
type TurnResult struct {
	Session   Session
	Reply     string
	Completed bool

	// Set only on the completing turn.
	Theory    *theory.TheoryOfChange
	Readiness *theory.FoundationReadiness
}

// Machine drives the fixed nine-step elicitation sequence. Turns for
// the same session are serialized with a per-session lock; the machine
// itself performs no completion calls, so no network waits happen
// under the lock.
type Machine struct {
	store   Store
	ids     *ids.Generator
	prompts map[Step]string
	logger  *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // entries are dropped when the session completes
}

func NewMachine(store Store, gen *ids.Generator, prompts map[Step]string, logger *log.Logger) *Machine {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Machine{
		store:   store,
		ids:     gen,
		prompts: prompts,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *Machine) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.locks[sessionID]
	if !ok {
		lk = &sync.Mutex{}
		m.locks[sessionID] = lk
	}
	return lk
}

// releaseLock drops a session's lock entry. Completed sessions reject
// further turns via the step check, so a later Restart may safely take
// a fresh lock.
func (m *Machine) releaseLock(sessionID string) {
	m.mu.Lock()
	delete(m.locks, sessionID)
	m.mu.Unlock()
}

// StartSession creates a session at the first step. seed carries any
// partial theory from a prior pathway (document extraction, an
// abandoned run); it becomes the initial merge target.
func (m *Machine) StartSession(ctx context.Context, orgID string, seed *theory.TheoryOfChange) (Session, Message, error) {
	now := time.Now().UTC()
	s := Session{
		ID:                   m.ids.New(),
		OrganizationID:       orgID,
		CurrentStep:          stepOrder[0],
		CompletionPercentage: 0,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if seed != nil {
		s.PartialTheory = theory.Merge(nil, *seed)
	}
	opening := Message{
		ID:        m.ids.New(),
		SessionID: s.ID,
		Role:      llmclient.RoleAssistant,
		Content:   m.prompts[s.CurrentStep],
		Step:      s.CurrentStep,
		CreatedAt: now,
	}
	if err := m.store.CreateSession(ctx, s, opening); err != nil {
		return Session{}, Message{}, fault.Persistence("create session", err)
	}
	return s, opening, nil
}

// Advance processes one user turn: persist the raw answer immutably,
// interpret it under the current step's rules, merge into the partial
// theory, move to the next step, and either emit the next prompt or
// finalize the theory.
func (m *Machine) Advance(ctx context.Context, sessionID, answer string) (TurnResult, error) {
	lk := m.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	current, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if current.CurrentStep == StepComplete {
		return TurnResult{}, fault.Validationf("session %s is already complete; restart to revise", sessionID)
	}

	step := current.CurrentStep
	incoming := interpret(step, answer)
	merged := theory.Merge(&current.PartialTheory, incoming)
	nextStep := Next(step)
	now := time.Now().UTC()

	reply := m.prompts[nextStep]
	if nextStep == StepComplete {
		reply = completionMessage
	}
	msgs := []Message{
		{ID: m.ids.New(), SessionID: sessionID, Role: llmclient.RoleUser, Content: answer, Step: step, CreatedAt: now},
		{ID: m.ids.New(), SessionID: sessionID, Role: llmclient.RoleAssistant, Content: reply, Step: nextStep, CreatedAt: now},
	}
	apply := func(s *Session) error {
		if s.CurrentStep != step {
			return fault.Validationf("session %s advanced concurrently", sessionID)
		}
		s.PartialTheory = merged
		s.CurrentStep = nextStep
		s.CompletionPercentage = CompletionPercent(nextStep)
		s.UpdatedAt = now
		return nil
	}

	if nextStep == StepComplete {
		toc := merged
		toc.ID = m.ids.New()
		toc.OrganizationID = current.OrganizationID
		toc.CreatedAt = now
		updated, persisted, readiness, err := m.store.FinalizeTurn(ctx, sessionID, msgs, toc, theory.Score, apply)
		if err != nil {
			return TurnResult{}, err
		}
		m.releaseLock(sessionID)
		m.logger.Printf("guided: session %s complete, theory %s v%d score=%d",
			sessionID, persisted.ID, persisted.Version, readiness.CompletenessScore)
		return TurnResult{
			Session:   updated,
			Reply:     reply,
			Completed: true,
			Theory:    &persisted,
			Readiness: &readiness,
		}, nil
	}

	updated, err := m.store.ApplyTurn(ctx, sessionID, msgs, apply)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Session: updated, Reply: reply}, nil
}

// Restart resets a completed or in-flight session to the first step.
// This is the only path on which completionPercentage may decrease.
// The message log is kept; the partial theory is cleared so a fresh
// run produces a fresh version.
func (m *Machine) Restart(ctx context.Context, sessionID string) (Session, Message, error) {
	lk := m.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	now := time.Now().UTC()
	opening := Message{
		ID:        m.ids.New(),
		SessionID: sessionID,
		Role:      llmclient.RoleAssistant,
		Content:   m.prompts[stepOrder[0]],
		Step:      stepOrder[0],
		CreatedAt: now,
	}
	updated, err := m.store.ApplyTurn(ctx, sessionID, []Message{opening}, func(s *Session) error {
		s.CurrentStep = stepOrder[0]
		s.CompletionPercentage = 0
		s.PartialTheory = theory.TheoryOfChange{}
		s.Active = true
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Session{}, Message{}, err
	}
	return updated, opening, nil
}
