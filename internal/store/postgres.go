package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"groundwork/internal/decision"
	"groundwork/internal/fault"
	"groundwork/internal/guided"
	"groundwork/internal/theory"
)

// PostgresStore persists everything in Postgres. Rich documents
// (session state, theory versions, questions) live in JSONB columns
// next to the keys the queries filter on; turn application runs in a
// SELECT ... FOR UPDATE transaction so concurrent writers serialize on
// the row.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresStore opens a connection with the pgx stdlib driver and
// verifies it with a ping. The schema is created lazily on first use.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS guided_sessions (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  doc JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_guided_sessions_org_id ON guided_sessions (org_id);

CREATE TABLE IF NOT EXISTS guided_messages (
  seq BIGSERIAL PRIMARY KEY,
  session_id TEXT NOT NULL,
  doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_guided_messages_session_id ON guided_messages (session_id);

CREATE TABLE IF NOT EXISTS theory_versions (
  org_id TEXT NOT NULL,
  version INTEGER NOT NULL,
  theory_id TEXT NOT NULL,
  doc JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  PRIMARY KEY (org_id, version)
);

CREATE TABLE IF NOT EXISTS foundation_readiness (
  org_id TEXT PRIMARY KEY,
  doc JSONB NOT NULL,
  computed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS mapping_sessions (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  doc JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_mapping_sessions_org_id ON mapping_sessions (org_id);

CREATE TABLE IF NOT EXISTS decision_questions (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  doc JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_decision_questions_org_id ON decision_questions (org_id);

CREATE TABLE IF NOT EXISTS decision_evolutions (
  seq BIGSERIAL PRIMARY KEY,
  question_id TEXT NOT NULL,
  doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_evolutions_question_id ON decision_evolutions (question_id);
`)
	})
	return s.schemaErr
}

func scanDoc[T any](row interface{ Scan(...any) error }, notFound error) (T, error) {
	var (
		zero T
		raw  []byte
	)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, notFound
		}
		return zero, fault.Persistence("scan", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fault.Persistence("decode", err)
	}
	return out, nil
}

// --- guided.Store ---

func (s *PostgresStore) CreateSession(ctx context.Context, sess guided.Session, opening guided.Message) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return fault.Persistence("encode session", err)
	}
	msg, err := json.Marshal(opening)
	if err != nil {
		return fault.Persistence("encode message", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO guided_sessions (id, org_id, doc, updated_at)
VALUES ($1, $2, $3, NOW())`, sess.ID, sess.OrganizationID, doc); err != nil {
		return fault.Persistence("insert session", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO guided_messages (session_id, doc) VALUES ($1, $2)`, sess.ID, msg); err != nil {
		return fault.Persistence("insert message", err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Persistence("commit", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (guided.Session, error) {
	if err := s.ensureSchema(); err != nil {
		return guided.Session{}, fault.Persistence("schema", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM guided_sessions WHERE id = $1`, sessionID)
	return scanDoc[guided.Session](row, fault.NotFoundf("session %s", sessionID))
}

func (s *PostgresStore) ApplyTurn(ctx context.Context, sessionID string, msgs []guided.Message, update func(*guided.Session) error) (guided.Session, error) {
	if err := s.ensureSchema(); err != nil {
		return guided.Session{}, fault.Persistence("schema", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return guided.Session{}, fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT doc FROM guided_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	sess, err := scanDoc[guided.Session](row, fault.NotFoundf("session %s", sessionID))
	if err != nil {
		return guided.Session{}, err
	}
	if err := update(&sess); err != nil {
		return guided.Session{}, err
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return guided.Session{}, fault.Persistence("encode session", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE guided_sessions SET doc = $2, updated_at = NOW() WHERE id = $1`, sessionID, doc); err != nil {
		return guided.Session{}, fault.Persistence("update session", err)
	}
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return guided.Session{}, fault.Persistence("encode message", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO guided_messages (session_id, doc) VALUES ($1, $2)`, sessionID, raw); err != nil {
			return guided.Session{}, fault.Persistence("insert message", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return guided.Session{}, fault.Persistence("commit", err)
	}
	return sess, nil
}

func (s *PostgresStore) FinalizeTurn(ctx context.Context, sessionID string, msgs []guided.Message, t theory.TheoryOfChange, score func(theory.TheoryOfChange) theory.FoundationReadiness, update func(*guided.Session) error) (guided.Session, theory.TheoryOfChange, theory.FoundationReadiness, error) {
	var (
		zeroT theory.TheoryOfChange
		zeroR theory.FoundationReadiness
	)
	if err := s.ensureSchema(); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("schema", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT doc FROM guided_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	sess, err := scanDoc[guided.Session](row, fault.NotFoundf("session %s", sessionID))
	if err != nil {
		return guided.Session{}, zeroT, zeroR, err
	}
	if err := update(&sess); err != nil {
		return guided.Session{}, zeroT, zeroR, err
	}
	var next int
	if err := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(version), 0) + 1 FROM theory_versions WHERE org_id = $1`,
		t.OrganizationID).Scan(&next); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("next version", err)
	}
	t.Version = next
	r := score(t)

	doc, err := json.Marshal(sess)
	if err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("encode session", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE guided_sessions SET doc = $2, updated_at = NOW() WHERE id = $1`, sessionID, doc); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("update session", err)
	}
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return guided.Session{}, zeroT, zeroR, fault.Persistence("encode message", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO guided_messages (session_id, doc) VALUES ($1, $2)`, sessionID, raw); err != nil {
			return guided.Session{}, zeroT, zeroR, fault.Persistence("insert message", err)
		}
	}
	theoryDoc, err := json.Marshal(t)
	if err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("encode theory", err)
	}
	// The primary key rejects a concurrent writer that raced to the
	// same version number.
	if _, err := tx.ExecContext(ctx, `
INSERT INTO theory_versions (org_id, version, theory_id, doc, created_at)
VALUES ($1, $2, $3, $4, NOW())`, t.OrganizationID, t.Version, t.ID, theoryDoc); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("insert theory version", err)
	}
	readinessDoc, err := json.Marshal(r)
	if err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("encode readiness", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO foundation_readiness (org_id, doc, computed_at)
VALUES ($1, $2, NOW())
ON CONFLICT (org_id)
DO UPDATE SET doc = EXCLUDED.doc, computed_at = NOW()`, r.OrganizationID, readinessDoc); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("upsert readiness", err)
	}
	if err := tx.Commit(); err != nil {
		return guided.Session{}, zeroT, zeroR, fault.Persistence("commit", err)
	}
	return sess, t, r, nil
}

func (s *PostgresStore) FindActiveSession(ctx context.Context, orgID string) (guided.Session, error) {
	if err := s.ensureSchema(); err != nil {
		return guided.Session{}, fault.Persistence("schema", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM guided_sessions WHERE org_id = $1 ORDER BY updated_at DESC`, orgID)
	if err != nil {
		return guided.Session{}, fault.Persistence("query sessions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var sess guided.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		if sess.Active && sess.CurrentStep != guided.StepComplete {
			return sess, nil
		}
	}
	if err := rows.Err(); err != nil {
		return guided.Session{}, fault.Persistence("query sessions", err)
	}
	return guided.Session{}, fault.NotFoundf("active session for organization %s", orgID)
}

func (s *PostgresStore) ListMessages(ctx context.Context, sessionID string) ([]guided.Message, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fault.Persistence("schema", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM guided_messages WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fault.Persistence("query messages", err)
	}
	defer rows.Close()
	var out []guided.Message
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var m guided.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendTheoryVersion(ctx context.Context, t theory.TheoryOfChange) (theory.TheoryOfChange, error) {
	if err := s.ensureSchema(); err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("schema", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(version), 0) + 1 FROM theory_versions WHERE org_id = $1`,
		t.OrganizationID).Scan(&next); err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("next version", err)
	}
	t.Version = next
	doc, err := json.Marshal(t)
	if err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("encode theory", err)
	}
	// The primary key rejects a concurrent writer that raced to the
	// same version number.
	if _, err := tx.ExecContext(ctx, `
INSERT INTO theory_versions (org_id, version, theory_id, doc, created_at)
VALUES ($1, $2, $3, $4, NOW())`, t.OrganizationID, t.Version, t.ID, doc); err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("insert theory version", err)
	}
	if err := tx.Commit(); err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("commit", err)
	}
	return t, nil
}

func (s *PostgresStore) SaveReadiness(ctx context.Context, r theory.FoundationReadiness) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fault.Persistence("encode readiness", err)
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO foundation_readiness (org_id, doc, computed_at)
VALUES ($1, $2, NOW())
ON CONFLICT (org_id)
DO UPDATE SET doc = EXCLUDED.doc, computed_at = NOW()`, r.OrganizationID, doc); err != nil {
		return fault.Persistence("upsert readiness", err)
	}
	return nil
}

// --- decision.Store ---

func (s *PostgresStore) CreateMappingSession(ctx context.Context, sess decision.MappingSession) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return fault.Persistence("encode mapping session", err)
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO mapping_sessions (id, org_id, doc, updated_at)
VALUES ($1, $2, $3, NOW())`, sess.ID, sess.OrganizationID, doc); err != nil {
		return fault.Persistence("insert mapping session", err)
	}
	return nil
}

func (s *PostgresStore) GetMappingSession(ctx context.Context, sessionID string) (decision.MappingSession, error) {
	if err := s.ensureSchema(); err != nil {
		return decision.MappingSession{}, fault.Persistence("schema", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM mapping_sessions WHERE id = $1`, sessionID)
	return scanDoc[decision.MappingSession](row, fault.NotFoundf("mapping session %s", sessionID))
}

func (s *PostgresStore) ApplyMappingTurn(ctx context.Context, sessionID string, update func(*decision.MappingSession) error) (decision.MappingSession, error) {
	if err := s.ensureSchema(); err != nil {
		return decision.MappingSession{}, fault.Persistence("schema", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decision.MappingSession{}, fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT doc FROM mapping_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	sess, err := scanDoc[decision.MappingSession](row, fault.NotFoundf("mapping session %s", sessionID))
	if err != nil {
		return decision.MappingSession{}, err
	}
	if err := update(&sess); err != nil {
		return decision.MappingSession{}, err
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return decision.MappingSession{}, fault.Persistence("encode mapping session", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE mapping_sessions SET doc = $2, updated_at = NOW() WHERE id = $1`, sessionID, doc); err != nil {
		return decision.MappingSession{}, fault.Persistence("update mapping session", err)
	}
	if err := tx.Commit(); err != nil {
		return decision.MappingSession{}, fault.Persistence("commit", err)
	}
	return sess, nil
}

func (s *PostgresStore) FinalizeMappingTurn(ctx context.Context, sessionID string, questions []decision.Question, evolutions []decision.Evolution, update func(*decision.MappingSession) error) (decision.MappingSession, error) {
	if err := s.ensureSchema(); err != nil {
		return decision.MappingSession{}, fault.Persistence("schema", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decision.MappingSession{}, fault.Persistence("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT doc FROM mapping_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	sess, err := scanDoc[decision.MappingSession](row, fault.NotFoundf("mapping session %s", sessionID))
	if err != nil {
		return decision.MappingSession{}, err
	}
	if err := update(&sess); err != nil {
		return decision.MappingSession{}, err
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return decision.MappingSession{}, fault.Persistence("encode mapping session", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE mapping_sessions SET doc = $2, updated_at = NOW() WHERE id = $1`, sessionID, doc); err != nil {
		return decision.MappingSession{}, fault.Persistence("update mapping session", err)
	}
	for _, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return decision.MappingSession{}, fault.Persistence("encode question", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO decision_questions (id, org_id, doc, created_at)
VALUES ($1, $2, $3, NOW())`, q.ID, q.OrganizationID, raw); err != nil {
			return decision.MappingSession{}, fault.Persistence("insert question", err)
		}
	}
	for _, ev := range evolutions {
		raw, err := json.Marshal(ev)
		if err != nil {
			return decision.MappingSession{}, fault.Persistence("encode evolution", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO decision_evolutions (question_id, doc) VALUES ($1, $2)`, ev.QuestionID, raw); err != nil {
			return decision.MappingSession{}, fault.Persistence("insert evolution", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return decision.MappingSession{}, fault.Persistence("commit", err)
	}
	return sess, nil
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q decision.Question) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(q)
	if err != nil {
		return fault.Persistence("encode question", err)
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO decision_questions (id, org_id, doc, created_at)
VALUES ($1, $2, $3, NOW())`, q.ID, q.OrganizationID, doc); err != nil {
		return fault.Persistence("insert question", err)
	}
	return nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, questionID string) (decision.Question, error) {
	if err := s.ensureSchema(); err != nil {
		return decision.Question{}, fault.Persistence("schema", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM decision_questions WHERE id = $1`, questionID)
	return scanDoc[decision.Question](row, fault.NotFoundf("question %s", questionID))
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, q decision.Question) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(q)
	if err != nil {
		return fault.Persistence("encode question", err)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE decision_questions SET doc = $2 WHERE id = $1`, q.ID, doc)
	if err != nil {
		return fault.Persistence("update question", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFoundf("question %s", q.ID)
	}
	return nil
}

func (s *PostgresStore) AppendEvolution(ctx context.Context, ev decision.Evolution) error {
	if err := s.ensureSchema(); err != nil {
		return fault.Persistence("schema", err)
	}
	doc, err := json.Marshal(ev)
	if err != nil {
		return fault.Persistence("encode evolution", err)
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO decision_evolutions (question_id, doc) VALUES ($1, $2)`, ev.QuestionID, doc); err != nil {
		return fault.Persistence("insert evolution", err)
	}
	return nil
}

func (s *PostgresStore) GetLiveTheory(ctx context.Context, orgID string) (theory.TheoryOfChange, error) {
	if err := s.ensureSchema(); err != nil {
		return theory.TheoryOfChange{}, fault.Persistence("schema", err)
	}
	row := s.db.QueryRowContext(ctx, `
SELECT doc FROM theory_versions WHERE org_id = $1 ORDER BY version DESC LIMIT 1`, orgID)
	return scanDoc[theory.TheoryOfChange](row, fault.NotFoundf("theory for organization %s", orgID))
}

// --- queries ---

func (s *PostgresStore) GetReadiness(ctx context.Context, orgID string) (theory.FoundationReadiness, error) {
	if err := s.ensureSchema(); err != nil {
		return theory.FoundationReadiness{}, fault.Persistence("schema", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM foundation_readiness WHERE org_id = $1`, orgID)
	return scanDoc[theory.FoundationReadiness](row, fault.NotFoundf("readiness for organization %s", orgID))
}

func (s *PostgresStore) ListTheoryVersions(ctx context.Context, orgID string) ([]theory.TheoryOfChange, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fault.Persistence("schema", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM theory_versions WHERE org_id = $1 ORDER BY version`, orgID)
	if err != nil {
		return nil, fault.Persistence("query theory versions", err)
	}
	defer rows.Close()
	var out []theory.TheoryOfChange
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var t theory.TheoryOfChange
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListQuestions(ctx context.Context, orgID string) ([]decision.Question, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fault.Persistence("schema", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM decision_questions WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fault.Persistence("query questions", err)
	}
	defer rows.Close()
	var out []decision.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var q decision.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListEvolutions(ctx context.Context, questionID string) ([]decision.Evolution, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, fault.Persistence("schema", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM decision_evolutions WHERE question_id = $1 ORDER BY seq`, questionID)
	if err != nil {
		return nil, fault.Persistence("query evolutions", err)
	}
	defer rows.Close()
	var out []decision.Evolution
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var ev decision.Evolution
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
