package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"groundwork/internal/guided"
	"groundwork/internal/theory"
)

// CachedStore wraps a Store with LRU read caches for the two hot
// lookups: the live theory and the readiness assessment. Both are read
// on every decision-mapping turn and every access-gate check, while
// writes only happen when a capture pathway completes.
type CachedStore struct {
	Store

	theories  *lru.Cache[string, theory.TheoryOfChange]
	readiness *lru.Cache[string, theory.FoundationReadiness]
}

// NewCachedStore wraps inner with caches of the given size.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	theories, err := lru.New[string, theory.TheoryOfChange](size)
	if err != nil {
		return nil, err
	}
	readiness, err := lru.New[string, theory.FoundationReadiness](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{Store: inner, theories: theories, readiness: readiness}, nil
}

func (s *CachedStore) GetLiveTheory(ctx context.Context, orgID string) (theory.TheoryOfChange, error) {
	if t, ok := s.theories.Get(orgID); ok {
		return t, nil
	}
	t, err := s.Store.GetLiveTheory(ctx, orgID)
	if err != nil {
		return theory.TheoryOfChange{}, err
	}
	s.theories.Add(orgID, t)
	return t, nil
}

func (s *CachedStore) AppendTheoryVersion(ctx context.Context, t theory.TheoryOfChange) (theory.TheoryOfChange, error) {
	out, err := s.Store.AppendTheoryVersion(ctx, t)
	if err != nil {
		return theory.TheoryOfChange{}, err
	}
	// Cache the new live version rather than just dropping the entry;
	// the next guided turn reads it straight back.
	s.theories.Add(out.OrganizationID, out)
	return out, nil
}

func (s *CachedStore) FinalizeTurn(ctx context.Context, sessionID string, msgs []guided.Message, t theory.TheoryOfChange, score func(theory.TheoryOfChange) theory.FoundationReadiness, update func(*guided.Session) error) (guided.Session, theory.TheoryOfChange, theory.FoundationReadiness, error) {
	sess, persisted, r, err := s.Store.FinalizeTurn(ctx, sessionID, msgs, t, score, update)
	if err != nil {
		return guided.Session{}, theory.TheoryOfChange{}, theory.FoundationReadiness{}, err
	}
	s.theories.Add(persisted.OrganizationID, persisted)
	s.readiness.Add(r.OrganizationID, r)
	return sess, persisted, r, nil
}

func (s *CachedStore) GetReadiness(ctx context.Context, orgID string) (theory.FoundationReadiness, error) {
	if r, ok := s.readiness.Get(orgID); ok {
		return r, nil
	}
	r, err := s.Store.GetReadiness(ctx, orgID)
	if err != nil {
		return theory.FoundationReadiness{}, err
	}
	s.readiness.Add(orgID, r)
	return r, nil
}

func (s *CachedStore) SaveReadiness(ctx context.Context, r theory.FoundationReadiness) error {
	if err := s.Store.SaveReadiness(ctx, r); err != nil {
		return err
	}
	s.readiness.Add(r.OrganizationID, r)
	return nil
}
