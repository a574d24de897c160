package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brainkit/brainkit-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedDeck creates a deck for the given user. Returns a filled domain.Deck.
func SeedDeck(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Deck {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	deck := domain.Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Deck " + uniqueSuffix(),
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO decks (id, user_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		deck.ID, deck.UserID, deck.Name, deck.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDeck insert deck: %v", err)
	}

	return deck
}

// SeedFlashcard creates a never-reviewed flashcard (default SM-2 state, NULL
// next_review_date) in the given deck. Returns a filled domain.Flashcard.
func SeedFlashcard(t *testing.T, pool *pgxpool.Pool, deckID uuid.UUID) domain.Flashcard {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	card := domain.Flashcard{
		ID:           uuid.New(),
		DeckID:       deckID,
		EaseFactor:   2.5,
		IntervalDays: 0,
		Repetitions:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO flashcards (id, deck_id, ease_factor, interval_days, repetitions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		card.ID, card.DeckID, card.EaseFactor, card.IntervalDays, card.Repetitions, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFlashcard insert flashcard: %v", err)
	}

	return card
}

// SeedReviewedFlashcard creates a flashcard with explicit scheduling state.
// nextReview may be in the past (due) or future (not due).
func SeedReviewedFlashcard(t *testing.T, pool *pgxpool.Pool, deckID uuid.UUID, ease float64, interval, reps int, nextReview time.Time) domain.Flashcard {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	next := nextReview.UTC().Truncate(time.Microsecond)
	lastReviewed := next.AddDate(0, 0, -interval)
	card := domain.Flashcard{
		ID:             uuid.New(),
		DeckID:         deckID,
		EaseFactor:     ease,
		IntervalDays:   interval,
		Repetitions:    reps,
		NextReviewDate: &next,
		LastReviewedAt: &lastReviewed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO flashcards (id, deck_id, ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		card.ID, card.DeckID, card.EaseFactor, card.IntervalDays, card.Repetitions,
		card.NextReviewDate, card.LastReviewedAt, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReviewedFlashcard insert flashcard: %v", err)
	}

	return card
}

// SeedSession creates an ACTIVE study session over the given card queue.
func SeedSession(t *testing.T, pool *pgxpool.Pool, userID, deckID uuid.UUID, queue []uuid.UUID) domain.StudySession {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	session := domain.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Status:    domain.SessionStatusActive,
		Queue:     queue,
		Cursor:    0,
		StartedAt: now,
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO study_sessions (id, user_id, deck_id, status, queue, cursor, cards_reviewed, started_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)`,
		session.ID, session.UserID, session.DeckID, string(session.Status), session.Queue, session.StartedAt, session.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSession insert session: %v", err)
	}

	return session
}
