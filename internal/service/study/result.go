package study

import (
	"github.com/google/uuid"

	"github.com/brainkit/brainkit-backend/internal/domain"
)

// StartResult is the outcome of starting a study session. When the deck has
// no due cards, Session is nil and Empty is true: no session row is created
// for an empty due set.
type StartResult struct {
	Session *domain.StudySession
	Cards   []*domain.Flashcard
	Empty   bool
}

// ReviewResult reports one graded review: the card's new scheduling state
// and the session's position after advancing.
type ReviewResult struct {
	Card   *domain.Flashcard
	Review *domain.CardReview

	// NextCardID is the card now at the session cursor; Nil when the queue
	// is exhausted.
	NextCardID     uuid.UUID
	CardsRemaining int
}

// DueResult is the read-only due-set peek for a deck. It never creates or
// mutates sessions.
type DueResult struct {
	Cards []*domain.Flashcard
	Total int
}

// HistoryResult is a page of a card's review log, newest first.
type HistoryResult struct {
	Reviews []*domain.CardReview
	Total   int
}
