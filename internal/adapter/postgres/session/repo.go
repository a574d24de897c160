// Package session implements the StudySession repository using PostgreSQL.
// The due-card snapshot is a uuid[] column and the cursor a plain integer, so
// a session's full state lives in one row and cursor moves can be guarded
// with a compare-and-swap in the UPDATE's WHERE clause.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/brainkit/brainkit-backend/internal/adapter/postgres"
	"github.com/brainkit/brainkit-backend/internal/domain"
)

// Repo provides study session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const sessionColumns = `id, user_id, deck_id, status, queue, cursor, cards_reviewed,
       started_at, completed_at, duration_seconds, created_at`

const createSQL = `
INSERT INTO study_sessions (id, user_id, deck_id, status, queue, cursor, cards_reviewed, started_at, created_at)
VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)
RETURNING ` + sessionColumns

const getByIDSQL = `
SELECT ` + sessionColumns + `
FROM study_sessions
WHERE id = $1 AND user_id = $2`

// advanceSQL moves the cursor exactly one step from the position the caller
// observed. A stale cursor matches zero rows.
const advanceSQL = `
UPDATE study_sessions
SET cursor = cursor + 1, cards_reviewed = cards_reviewed + 1
WHERE id = $1 AND cursor = $2 AND status = 'ACTIVE'`

const completeSQL = `
UPDATE study_sessions
SET status = 'COMPLETED', completed_at = $3, duration_seconds = $4
WHERE id = $1 AND user_id = $2 AND status = 'ACTIVE'
RETURNING ` + sessionColumns

const statusSQL = `SELECT status FROM study_sessions WHERE id = $1`

const statusByUserSQL = `SELECT status FROM study_sessions WHERE id = $1 AND user_id = $2`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a session by primary key filtered by user_id.
// Returns domain.ErrNotFound if the session does not exist or belongs to another user.
func (r *Repo) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, sessionID, userID)

	session, err := scanSession(row)
	if err != nil {
		return nil, postgres.MapError(err, "session", sessionID)
	}

	return session, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new study session and returns the persisted domain.StudySession.
func (r *Repo) Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	startedAt := session.StartedAt.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		session.ID,
		session.UserID,
		session.DeckID,
		string(session.Status),
		session.Queue,
		startedAt,
		now,
	)

	created, err := scanSession(row)
	if err != nil {
		return nil, postgres.MapError(err, "session", session.ID)
	}

	return created, nil
}

// Advance moves the cursor from fromCursor to fromCursor+1 and increments
// cards_reviewed. Returns domain.ErrConflict if the stored cursor no longer
// matches (a concurrent review advanced it first) and domain.ErrSessionClosed
// if the session is no longer ACTIVE.
func (r *Repo) Advance(ctx context.Context, sessionID uuid.UUID, fromCursor int) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, advanceSQL, sessionID, fromCursor)
	if err != nil {
		return postgres.MapError(err, "session", sessionID)
	}

	if ct.RowsAffected() == 0 {
		var status string
		if err := querier.QueryRow(ctx, statusSQL, sessionID).Scan(&status); err != nil {
			return postgres.MapError(err, "session", sessionID)
		}
		if domain.SessionStatus(status) != domain.SessionStatusActive {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
		}
		return fmt.Errorf("session %s: cursor moved past %d: %w", sessionID, fromCursor, domain.ErrConflict)
	}

	return nil
}

// Complete transitions an ACTIVE session to COMPLETED, stamping completed_at
// and duration_seconds. Returns domain.ErrSessionClosed if the session is
// already terminal and domain.ErrNotFound if it does not exist or belongs to
// another user.
func (r *Repo) Complete(ctx context.Context, userID, sessionID uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, completeSQL, sessionID, userID,
		completedAt.UTC().Truncate(time.Microsecond), durationSeconds)

	completed, err := scanSession(row)
	if err == nil {
		return completed, nil
	}

	// Zero rows from the guarded UPDATE: figure out whether the session is
	// missing or already completed.
	var status string
	if scanErr := querier.QueryRow(ctx, statusByUserSQL, sessionID, userID).Scan(&status); scanErr != nil {
		return nil, postgres.MapError(err, "session", sessionID)
	}
	if domain.SessionStatus(status) != domain.SessionStatusActive {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionClosed)
	}

	return nil, postgres.MapError(err, "session", sessionID)
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

// scanSession scans a single session row from pgx.Row.
func scanSession(row pgx.Row) (*domain.StudySession, error) {
	var (
		s      domain.StudySession
		status string
		queue  []uuid.UUID
	)

	if err := row.Scan(&s.ID, &s.UserID, &s.DeckID, &status, &queue, &s.Cursor,
		&s.CardsReviewed, &s.StartedAt, &s.CompletedAt, &s.DurationSeconds, &s.CreatedAt); err != nil {
		return nil, err
	}

	s.Status = domain.SessionStatus(status)
	s.Queue = queue
	if s.Queue == nil {
		s.Queue = []uuid.UUID{}
	}

	return &s, nil
}
