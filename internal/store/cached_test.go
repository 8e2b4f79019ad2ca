package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwork/internal/fault"
	"groundwork/internal/guided"
	"groundwork/internal/theory"
)

func TestCachedStoreTheoryReads(t *testing.T) {
	inner := NewMemoryStore("")
	s, err := NewCachedStore(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.GetLiveTheory(ctx, "org")
	assert.True(t, fault.IsNotFound(err))

	v1, err := s.AppendTheoryVersion(ctx, theory.TheoryOfChange{ID: "t1", OrganizationID: "org"})
	require.NoError(t, err)

	live, err := s.GetLiveTheory(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, live.ID)

	// A new version through the decorator must not serve the old one.
	v2, err := s.AppendTheoryVersion(ctx, theory.TheoryOfChange{ID: "t2", OrganizationID: "org"})
	require.NoError(t, err)
	live, err = s.GetLiveTheory(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, live.ID)
	assert.Equal(t, 2, live.Version)
}

func TestCachedStoreReadinessReads(t *testing.T) {
	inner := NewMemoryStore("")
	s, err := NewCachedStore(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveReadiness(ctx, theory.FoundationReadiness{OrganizationID: "org", CompletenessScore: 50, Level: theory.LevelBasic}))
	r, err := s.GetReadiness(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, 50, r.CompletenessScore)

	require.NoError(t, s.SaveReadiness(ctx, theory.FoundationReadiness{OrganizationID: "org", CompletenessScore: 90, Level: theory.LevelExcellent}))
	r, err = s.GetReadiness(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, theory.LevelExcellent, r.Level)
}

func TestCachedStoreFinalizeTurnRefreshesCaches(t *testing.T) {
	inner := NewMemoryStore("")
	s, err := NewCachedStore(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	// Prime both caches with the first version.
	_, err = s.AppendTheoryVersion(ctx, theory.TheoryOfChange{ID: "t1", OrganizationID: "org"})
	require.NoError(t, err)
	require.NoError(t, s.SaveReadiness(ctx, theory.FoundationReadiness{OrganizationID: "org", TheoryID: "t1", CompletenessScore: 20}))

	sess := guided.Session{ID: "s1", OrganizationID: "org", CurrentStep: guided.StepExternalFactors}
	require.NoError(t, s.CreateSession(ctx, sess, guided.Message{ID: "m1", SessionID: "s1"}))
	_, _, _, err = s.FinalizeTurn(ctx, "s1", nil,
		theory.TheoryOfChange{ID: "t2", OrganizationID: "org", TargetPopulation: "youth"},
		theory.Score, func(sess *guided.Session) error {
			sess.CurrentStep = guided.StepComplete
			return nil
		})
	require.NoError(t, err)

	live, err := s.GetLiveTheory(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, "t2", live.ID, "finalized version must displace the cached one")
	assert.Equal(t, 2, live.Version)
	r, err := s.GetReadiness(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, "t2", r.TheoryID, "finalized readiness must displace the cached one")
}

func TestCachedStorePopulatesOnMiss(t *testing.T) {
	inner := NewMemoryStore("")
	ctx := context.Background()
	// Write directly to the inner store, then read through the cache.
	_, err := inner.AppendTheoryVersion(ctx, theory.TheoryOfChange{ID: "t1", OrganizationID: "org", TargetPopulation: "youth"})
	require.NoError(t, err)

	s, err := NewCachedStore(inner, 16)
	require.NoError(t, err)
	live, err := s.GetLiveTheory(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, "youth", live.TargetPopulation)
}
