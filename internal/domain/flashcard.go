package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is the scheduling view of a flashcard: the SM-2 state plus the
// identifiers needed to select and update it. Content fields (front, back)
// are owned elsewhere and not loaded here.
type Flashcard struct {
	ID     uuid.UUID
	DeckID uuid.UUID

	// SM-2 state. Invariants: EaseFactor >= 1.3, IntervalDays >= 0,
	// Repetitions >= 0. A nil NextReviewDate means the card has never been
	// reviewed and is due immediately.
	EaseFactor     float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate *time.Time
	LastReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDue returns true if the card is eligible for review at the given time.
// Never-reviewed cards (nil NextReviewDate) are always due.
func (f *Flashcard) IsDue(now time.Time) bool {
	if f.NextReviewDate == nil {
		return true
	}
	return !f.NextReviewDate.After(now)
}

// SRSUpdateParams holds the scheduling fields to write after a graded review.
type SRSUpdateParams struct {
	EaseFactor     float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate time.Time
	LastReviewedAt time.Time
}

// SRSVersion identifies the scheduling state a review was computed against.
// The persistence layer uses it as an optimistic-concurrency check: the
// update applies only if the stored row still matches, so two racing reviews
// of the same card cannot both apply.
type SRSVersion struct {
	Repetitions    int
	NextReviewDate *time.Time
}

// Version returns the card's current optimistic-concurrency token.
func (f *Flashcard) Version() SRSVersion {
	return SRSVersion{Repetitions: f.Repetitions, NextReviewDate: f.NextReviewDate}
}

// Deck is the ownership anchor for flashcards. Only the columns this
// subsystem reads or touches are modeled.
type Deck struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	LastStudiedAt *time.Time
	CreatedAt     time.Time
}

// CardReview is the persisted audit record of a single graded review,
// capturing the scheduling state on both sides of the transition.
// ResponseTimeMs is analytics-only and never influences scheduling.
type CardReview struct {
	ID                 uuid.UUID
	SessionID          *uuid.UUID
	FlashcardID        uuid.UUID
	UserID             uuid.UUID
	Quality            Quality
	ResponseTimeMs     *int
	PreviousInterval   int
	NewInterval        int
	PreviousEaseFactor float64
	NewEaseFactor      float64
	ReviewedAt         time.Time
}
