package store

import (
	"context"

	"groundwork/internal/decision"
	"groundwork/internal/guided"
	"groundwork/internal/theory"
)

// Store is the full persistence surface of the capture core. The
// guided machine and decision engine each depend only on their own
// slice of it; this interface exists for wiring and decorators.
type Store interface {
	guided.Store
	decision.Store

	// AppendTheoryVersion persists a new append-only version and
	// returns the record with its version assigned.
	AppendTheoryVersion(ctx context.Context, t theory.TheoryOfChange) (theory.TheoryOfChange, error)
	// SaveReadiness replaces the stored readiness whole.
	SaveReadiness(ctx context.Context, r theory.FoundationReadiness) error
	CreateQuestion(ctx context.Context, q decision.Question) error

	// FindActiveSession returns the most recently touched guided
	// session for the organization that is active and not complete.
	FindActiveSession(ctx context.Context, orgID string) (guided.Session, error)
	GetReadiness(ctx context.Context, orgID string) (theory.FoundationReadiness, error)
	ListTheoryVersions(ctx context.Context, orgID string) ([]theory.TheoryOfChange, error)
	ListQuestions(ctx context.Context, orgID string) ([]decision.Question, error)
	ListEvolutions(ctx context.Context, questionID string) ([]decision.Evolution, error)
}
