package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"groundwork/internal/decision"
	"groundwork/internal/fault"
	"groundwork/internal/guided"
	"groundwork/internal/theory"
)

// MemoryStore keeps all state in maps guarded by one RWMutex. With a
// non-empty path it snapshots to a JSON file after each mutation, which
// is enough durability for local runs; production uses Postgres.
type MemoryStore struct {
	path string

	loadOnce sync.Once
	mu       sync.RWMutex

	sessions        map[string]guided.Session
	messages        map[string][]guided.Message
	theories        map[string][]theory.TheoryOfChange
	readiness       map[string]theory.FoundationReadiness
	mappingSessions map[string]decision.MappingSession
	questions       map[string]decision.Question
	questionOrgs    map[string][]string
	evolutions      map[string][]decision.Evolution
}

// NewMemoryStore creates an in-memory store. path may be empty for a
// purely ephemeral store (tests).
func NewMemoryStore(path string) *MemoryStore {
	return &MemoryStore{
		path:            path,
		sessions:        map[string]guided.Session{},
		messages:        map[string][]guided.Message{},
		theories:        map[string][]theory.TheoryOfChange{},
		readiness:       map[string]theory.FoundationReadiness{},
		mappingSessions: map[string]decision.MappingSession{},
		questions:       map[string]decision.Question{},
		questionOrgs:    map[string][]string{},
		evolutions:      map[string][]decision.Evolution{},
	}
}

type snapshot struct {
	Sessions        map[string]guided.Session             `json:"sessions"`
	Messages        map[string][]guided.Message           `json:"messages"`
	Theories        map[string][]theory.TheoryOfChange    `json:"theories"`
	Readiness       map[string]theory.FoundationReadiness `json:"readiness"`
	MappingSessions map[string]decision.MappingSession    `json:"mappingSessions"`
	Questions       map[string]decision.Question          `json:"questions"`
	QuestionOrgs    map[string][]string                   `json:"questionOrgs"`
	Evolutions      map[string][]decision.Evolution       `json:"evolutions"`
}

func (s *MemoryStore) ensureLoaded() {
	s.loadOnce.Do(func() {
		if s.path == "" {
			return
		}
		data, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if snap.Sessions != nil {
			s.sessions = snap.Sessions
		}
		if snap.Messages != nil {
			s.messages = snap.Messages
		}
		if snap.Theories != nil {
			s.theories = snap.Theories
		}
		if snap.Readiness != nil {
			s.readiness = snap.Readiness
		}
		if snap.MappingSessions != nil {
			s.mappingSessions = snap.MappingSessions
		}
		if snap.Questions != nil {
			s.questions = snap.Questions
		}
		if snap.QuestionOrgs != nil {
			s.questionOrgs = snap.QuestionOrgs
		}
		if snap.Evolutions != nil {
			s.evolutions = snap.Evolutions
		}
	})
}

// saveLocked writes the snapshot; callers hold the write lock.
func (s *MemoryStore) saveLocked() {
	if s.path == "" {
		return
	}
	snap := snapshot{
		Sessions:        s.sessions,
		Messages:        s.messages,
		Theories:        s.theories,
		Readiness:       s.readiness,
		MappingSessions: s.mappingSessions,
		Questions:       s.questions,
		QuestionOrgs:    s.questionOrgs,
		Evolutions:      s.evolutions,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, data, 0o644)
}

// --- guided.Store ---

func (s *MemoryStore) CreateSession(_ context.Context, sess guided.Session, opening guided.Message) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.messages[sess.ID] = append(s.messages[sess.ID], opening)
	s.saveLocked()
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (guided.Session, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return guided.Session{}, fault.NotFoundf("session %s", sessionID)
	}
	return sess, nil
}

func (s *MemoryStore) ApplyTurn(_ context.Context, sessionID string, msgs []guided.Message, update func(*guided.Session) error) (guided.Session, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return guided.Session{}, fault.NotFoundf("session %s", sessionID)
	}
	if err := update(&sess); err != nil {
		return guided.Session{}, err
	}
	s.sessions[sessionID] = sess
	s.messages[sessionID] = append(s.messages[sessionID], msgs...)
	s.saveLocked()
	return sess, nil
}

func (s *MemoryStore) FinalizeTurn(_ context.Context, sessionID string, msgs []guided.Message, t theory.TheoryOfChange, score func(theory.TheoryOfChange) theory.FoundationReadiness, update func(*guided.Session) error) (guided.Session, theory.TheoryOfChange, theory.FoundationReadiness, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return guided.Session{}, theory.TheoryOfChange{}, theory.FoundationReadiness{}, fault.NotFoundf("session %s", sessionID)
	}
	if err := update(&sess); err != nil {
		return guided.Session{}, theory.TheoryOfChange{}, theory.FoundationReadiness{}, err
	}
	versions := s.theories[t.OrganizationID]
	t.Version = len(versions) + 1
	r := score(t)
	s.sessions[sessionID] = sess
	s.messages[sessionID] = append(s.messages[sessionID], msgs...)
	s.theories[t.OrganizationID] = append(versions, t)
	s.readiness[r.OrganizationID] = r
	s.saveLocked()
	return sess, t, r, nil
}

func (s *MemoryStore) FindActiveSession(_ context.Context, orgID string) (guided.Session, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found guided.Session
	ok := false
	for _, sess := range s.sessions {
		if sess.OrganizationID != orgID || !sess.Active || sess.CurrentStep == guided.StepComplete {
			continue
		}
		if !ok || sess.UpdatedAt.After(found.UpdatedAt) {
			found = sess
			ok = true
		}
	}
	if !ok {
		return guided.Session{}, fault.NotFoundf("active session for organization %s", orgID)
	}
	return found, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]guided.Message, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	out := make([]guided.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) AppendTheoryVersion(_ context.Context, t theory.TheoryOfChange) (theory.TheoryOfChange, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.theories[t.OrganizationID]
	t.Version = len(versions) + 1
	s.theories[t.OrganizationID] = append(versions, t)
	s.saveLocked()
	return t, nil
}

func (s *MemoryStore) SaveReadiness(_ context.Context, r theory.FoundationReadiness) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	orgID := r.OrganizationID
	if orgID == "" {
		// Older snapshots keyed readiness off the theory; resolve it.
		for org, versions := range s.theories {
			for _, v := range versions {
				if v.ID == r.TheoryID {
					orgID = org
				}
			}
		}
	}
	s.readiness[orgID] = r
	s.saveLocked()
	return nil
}

// --- decision.Store ---

func (s *MemoryStore) CreateMappingSession(_ context.Context, sess decision.MappingSession) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappingSessions[sess.ID] = sess
	s.saveLocked()
	return nil
}

func (s *MemoryStore) GetMappingSession(_ context.Context, sessionID string) (decision.MappingSession, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.mappingSessions[sessionID]
	if !ok {
		return decision.MappingSession{}, fault.NotFoundf("mapping session %s", sessionID)
	}
	return sess, nil
}

func (s *MemoryStore) ApplyMappingTurn(_ context.Context, sessionID string, update func(*decision.MappingSession) error) (decision.MappingSession, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.mappingSessions[sessionID]
	if !ok {
		return decision.MappingSession{}, fault.NotFoundf("mapping session %s", sessionID)
	}
	if err := update(&sess); err != nil {
		return decision.MappingSession{}, err
	}
	s.mappingSessions[sessionID] = sess
	s.saveLocked()
	return sess, nil
}

func (s *MemoryStore) FinalizeMappingTurn(_ context.Context, sessionID string, questions []decision.Question, evolutions []decision.Evolution, update func(*decision.MappingSession) error) (decision.MappingSession, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.mappingSessions[sessionID]
	if !ok {
		return decision.MappingSession{}, fault.NotFoundf("mapping session %s", sessionID)
	}
	if err := update(&sess); err != nil {
		return decision.MappingSession{}, err
	}
	s.mappingSessions[sessionID] = sess
	for _, q := range questions {
		s.questions[q.ID] = q
		s.questionOrgs[q.OrganizationID] = append(s.questionOrgs[q.OrganizationID], q.ID)
	}
	for _, ev := range evolutions {
		s.evolutions[ev.QuestionID] = append(s.evolutions[ev.QuestionID], ev)
	}
	s.saveLocked()
	return sess, nil
}

func (s *MemoryStore) CreateQuestion(_ context.Context, q decision.Question) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	s.questionOrgs[q.OrganizationID] = append(s.questionOrgs[q.OrganizationID], q.ID)
	s.saveLocked()
	return nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, questionID string) (decision.Question, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return decision.Question{}, fault.NotFoundf("question %s", questionID)
	}
	return q, nil
}

func (s *MemoryStore) UpdateQuestion(_ context.Context, q decision.Question) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return fault.NotFoundf("question %s", q.ID)
	}
	s.questions[q.ID] = q
	s.saveLocked()
	return nil
}

func (s *MemoryStore) AppendEvolution(_ context.Context, ev decision.Evolution) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evolutions[ev.QuestionID] = append(s.evolutions[ev.QuestionID], ev)
	s.saveLocked()
	return nil
}

func (s *MemoryStore) GetLiveTheory(_ context.Context, orgID string) (theory.TheoryOfChange, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.theories[orgID]
	if len(versions) == 0 {
		return theory.TheoryOfChange{}, fault.NotFoundf("theory for organization %s", orgID)
	}
	return versions[len(versions)-1], nil
}

// --- queries ---

func (s *MemoryStore) GetReadiness(_ context.Context, orgID string) (theory.FoundationReadiness, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readiness[orgID]
	if !ok {
		return theory.FoundationReadiness{}, fault.NotFoundf("readiness for organization %s", orgID)
	}
	return r, nil
}

func (s *MemoryStore) ListTheoryVersions(_ context.Context, orgID string) ([]theory.TheoryOfChange, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.theories[orgID]
	out := make([]theory.TheoryOfChange, len(versions))
	copy(out, versions)
	return out, nil
}

func (s *MemoryStore) ListQuestions(_ context.Context, orgID string) ([]decision.Question, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.questionOrgs[orgID]
	out := make([]decision.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListEvolutions(_ context.Context, questionID string) ([]decision.Evolution, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.evolutions[questionID]
	out := make([]decision.Evolution, len(evs))
	copy(out, evs)
	return out, nil
}
