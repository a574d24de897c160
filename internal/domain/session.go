package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudySession is one study pass over a snapshot of a deck's due cards.
// The snapshot (Queue) and the Cursor into it are durable columns, so a
// session survives process restarts and client reloads; there is no
// in-process session state. Cards that become due after the snapshot was
// taken are not injected into an open session.
type StudySession struct {
	ID     uuid.UUID
	UserID uuid.UUID
	DeckID uuid.UUID
	Status SessionStatus

	// Queue is the ordered due-card snapshot taken at start time.
	// Cursor is the index of the next card to review; reviews must follow
	// this order exactly.
	Queue  []uuid.UUID
	Cursor int

	CardsReviewed   int
	StartedAt       time.Time
	CompletedAt     *time.Time
	DurationSeconds *int
	CreatedAt       time.Time
}

// CurrentCard returns the card at the session cursor, or false when the
// queue has been exhausted.
func (s *StudySession) CurrentCard() (uuid.UUID, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Queue) {
		return uuid.Nil, false
	}
	return s.Queue[s.Cursor], true
}

// Exhausted reports whether every card in the snapshot has been reviewed.
// An exhausted session is still ACTIVE until an explicit complete call.
func (s *StudySession) Exhausted() bool {
	return s.Cursor >= len(s.Queue)
}

// SessionSummary is the completion report for a finished session.
// CardsRemaining is recomputed against the due set at completion time, so it
// reflects cards that became due (or were created) while the session ran.
type SessionSummary struct {
	SessionID       uuid.UUID
	DeckID          uuid.UUID
	CardsReviewed   int
	DurationSeconds int
	CardsRemaining  int
	StartedAt       time.Time
	CompletedAt     time.Time
}
