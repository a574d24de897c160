// Package study implements the spaced-repetition study business logic:
// due-set selection, review grading, and session coordination.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/brainkit/brainkit-backend/internal/domain"
	"github.com/brainkit/brainkit-backend/internal/service/study/sm2"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type deckRepo interface {
	GetByID(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)
	TouchLastStudied(ctx context.Context, deckID uuid.UUID, at time.Time) error
}

type flashcardRepo interface {
	GetByID(ctx context.Context, cardID uuid.UUID) (*domain.Flashcard, error)
	// ListDue returns the ordered due set for a deck: never-reviewed cards
	// first, then most overdue first, ties broken by id. limit <= 0 means
	// no cap.
	ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Flashcard, error)
	CountDue(ctx context.Context, deckID uuid.UUID, now time.Time) (int, error)
	// UpdateSRS applies new scheduling state iff the stored row still matches
	// prev. Returns domain.ErrConflict on a lost race, domain.ErrNotFound for
	// an unknown card.
	UpdateSRS(ctx context.Context, cardID uuid.UUID, prev domain.SRSVersion, params domain.SRSUpdateParams) error
}

type sessionRepo interface {
	Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error)
	// Advance moves the cursor from fromCursor to fromCursor+1 and increments
	// cards_reviewed. Guarded by the prior cursor value; a mismatch returns
	// domain.ErrConflict.
	Advance(ctx context.Context, sessionID uuid.UUID, fromCursor int) error
	// Complete transitions an ACTIVE session to COMPLETED. Returns
	// domain.ErrSessionClosed if the session is already terminal.
	Complete(ctx context.Context, userID, sessionID uuid.UUID, completedAt time.Time, durationSeconds int) (*domain.StudySession, error)
}

type reviewRepo interface {
	Create(ctx context.Context, review *domain.CardReview) (*domain.CardReview, error)
	ListByFlashcard(ctx context.Context, flashcardID uuid.UUID, limit, offset int) ([]*domain.CardReview, int, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the study business logic. It is stateless: all session
// progress lives in durable rows, so any instance can serve any request.
type Service struct {
	decks    deckRepo
	cards    flashcardRepo
	sessions sessionRepo
	reviews  reviewRepo
	tx       txManager
	clock    clockwork.Clock
	log      *slog.Logger

	params sm2.Params
	// sessionCardLimit caps the due-set snapshot taken at session start.
	// 0 means unlimited. The due-set peek endpoint is never capped.
	sessionCardLimit int
}

// NewService creates a new Study service.
func NewService(
	log *slog.Logger,
	decks deckRepo,
	cards flashcardRepo,
	sessions sessionRepo,
	reviews reviewRepo,
	tx txManager,
	clock clockwork.Clock,
	params sm2.Params,
	sessionCardLimit int,
) (*Service, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SM-2 params: %w", err)
	}
	if sessionCardLimit < 0 {
		return nil, fmt.Errorf("session card limit must be >= 0 (got %d)", sessionCardLimit)
	}

	return &Service{
		decks:            decks,
		cards:            cards,
		sessions:         sessions,
		reviews:          reviews,
		tx:               tx,
		clock:            clock,
		log:              log.With("service", "study"),
		params:           params,
		sessionCardLimit: sessionCardLimit,
	}, nil
}
